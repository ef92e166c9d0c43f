//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/drawbench"

type Build mg.Namespace

// Compiles the drawbench binary into bin/.
func (Build) Binary() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/drawbench")
}

type Test mg.Namespace

// Runs every package test.
func (Test) Unit() error {
	return sh.RunV("go", "test", "./...")
}

// Runs the encoder and range-table benchmarks.
func (Test) Bench() error {
	return sh.RunV("go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./engine/instance/...", "./engine/multidraw/...")
}

type Run mg.Namespace

// Builds and runs the benchmark with the sample configuration.
func (Run) Sample() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run drawbench...")
	return sh.RunV(binary, "-config", "examples/drawbench.toml")
}

// Builds and runs a 10000-instance benchmark aimed at the cubes.
func (Run) Small() error {
	mg.Deps(Build.Binary)
	return sh.RunV(binary, "-config", "examples/small.toml")
}
