package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// RunFunc runs name with args, writing the command's stdout to stdout.
type RunFunc func(ctx context.Context, stdout io.Writer, name string, args ...string) error

// Builder generates rustdoc JSON for a package of a cargo workspace.
type Builder struct {
	Cargo        string
	Toolchain    string
	ManifestPath string
	AllFeatures  bool
	// Stderr receives cargo's progress output.
	Stderr io.Writer

	run RunFunc
}

func NewBuilder(manifestPath, toolchain string, allFeatures bool) *Builder {
	b := &Builder{
		Cargo:        "cargo",
		Toolchain:    toolchain,
		ManifestPath: manifestPath,
		AllFeatures:  allFeatures,
		Stderr:       os.Stderr,
	}
	b.run = b.exec
	return b
}

func (b *Builder) exec(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = b.Stderr
	slog.Debug("running", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return nil
}

type Metadata struct {
	Packages        []Package `json:"packages"`
	WorkspaceRoot   string    `json:"workspace_root"`
	TargetDirectory string    `json:"target_directory"`
}

type Package struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ManifestPath string   `json:"manifest_path"`
	Targets      []Target `json:"targets"`
}

type Target struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

// LibName is the crate name rustdoc names its output after.
func (p Package) LibName() string {
	for _, t := range p.Targets {
		if slices.ContainsFunc(t.Kind, func(k string) bool {
			return k == "lib" || k == "rlib" || k == "proc-macro"
		}) {
			return strings.ReplaceAll(t.Name, "-", "_")
		}
	}
	return strings.ReplaceAll(p.Name, "-", "_")
}

// Metadata returns the workspace's packages and target directory.
func (b *Builder) Metadata(ctx context.Context) (*Metadata, error) {
	var out bytes.Buffer
	args := []string{"metadata", "--format-version", "1", "--no-deps"}
	if b.ManifestPath != "" {
		args = append(args, "--manifest-path", b.ManifestPath)
	}
	if err := b.run(ctx, &out, b.Cargo, args...); err != nil {
		return nil, err
	}

	var md Metadata
	if err := json.Unmarshal(out.Bytes(), &md); err != nil {
		return nil, fmt.Errorf("decoding cargo metadata: %w", err)
	}
	return &md, nil
}

// Package picks name from the workspace, or its only package when name is
// empty.
func (md *Metadata) Package(name string) (Package, error) {
	if name == "" {
		if len(md.Packages) == 1 {
			return md.Packages[0], nil
		}
		names := make([]string, len(md.Packages))
		for i, p := range md.Packages {
			names[i] = p.Name
		}
		return Package{}, fmt.Errorf("workspace has %d packages, choose one of: %s", len(names), strings.Join(names, ", "))
	}
	for _, p := range md.Packages {
		if p.Name == name || p.LibName() == name {
			return p, nil
		}
	}
	return Package{}, fmt.Errorf("package %s not found in workspace %s", name, md.WorkspaceRoot)
}

// RustdocArgs are the cargo arguments that emit rustdoc JSON for pkg.
func (b *Builder) RustdocArgs(pkg string) []string {
	var args []string
	if b.Toolchain != "" {
		args = append(args, "+"+b.Toolchain)
	}
	args = append(args, "rustdoc", "-p", pkg)
	if b.ManifestPath != "" {
		args = append(args, "--manifest-path", b.ManifestPath)
	}
	if b.AllFeatures {
		args = append(args, "--all-features")
	}
	return append(args, "--", "-Z", "unstable-options", "--output-format", "json")
}

// Build runs rustdoc for pkg and returns the path of the JSON it wrote.
func (b *Builder) Build(ctx context.Context, pkg string) (string, error) {
	md, err := b.Metadata(ctx)
	if err != nil {
		return "", err
	}
	p, err := md.Package(pkg)
	if err != nil {
		return "", err
	}

	slog.Info("generating rustdoc JSON", "package", p.Name, "toolchain", b.Toolchain)
	if err := b.run(ctx, b.Stderr, b.Cargo, b.RustdocArgs(p.Name)...); err != nil {
		return "", err
	}

	out := filepath.Join(md.TargetDirectory, "doc", p.LibName()+".json")
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("rustdoc output missing: %w", err)
	}
	return out, nil
}
