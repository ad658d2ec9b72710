//go:build mage

// Package main provides build targets for the crudweb project using Mage.
//
// Usage:
//
//	mage build          Compile crudweb binary to bin/
//	mage test           Run all tests
//	mage testShort      Run tests in -short mode
//	mage golden         Regenerate web page golden files
//	mage lint           Run golangci-lint
//	mage serve          Build and run the web server
//	mage clean          Remove build artifacts
//	mage install        Install crudweb to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "crudweb"
	binaryDir  = "bin"
	cmdDir     = "./cmd/crudweb"
	webPkg     = "./internal/web"
)

// Build compiles the crudweb binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// TestShort runs tests in -short mode.
func TestShort() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Golden rewrites the golden page files from the current templates.
func Golden() error {
	return sh.RunV(binGo, "test", webPkg, "-run", "TestPagesGolden", "-update")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Serve builds the binary and runs the web server with default settings.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "serve")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
