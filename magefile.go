//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "worldly"

var Default = Build

// Build compiles the worldly binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/worldly")
}

// Test runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that talk to real providers
func Integration() error {
	if os.Getenv("WORLDLY_TEST_GOOGLE_CREDENTIALS") == "" && os.Getenv("WORLDLY_TEST_REDIS_ADDR") == "" {
		fmt.Println("Neither WORLDLY_TEST_GOOGLE_CREDENTIALS nor WORLDLY_TEST_REDIS_ADDR is set, integration tests will skip")
	}
	return sh.RunV("go", "test", "-count=1", "./internal/audio/...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs worldly into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/worldly")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binary)
}
