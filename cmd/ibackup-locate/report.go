package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/grantbirki/ibackup-locate/internal/backup"
)

// LookupResult is the --format json document written to stdout
type LookupResult struct {
	Mode       string                `json:"mode"`
	Query      string                `json:"query,omitempty"`
	Found      bool                  `json:"found"`
	Compatible bool                  `json:"compatible"`
	Version    string                `json:"version,omitempty"`
	Minimum    string                `json:"minimum_version,omitempty"`
	Files      []backup.ResolvedFile `json:"files,omitempty"`
	Domains    []string              `json:"domains,omitempty"`
}

// reporter prints lookup outcomes as colored text lines or JSON
type reporter struct {
	out    io.Writer
	format string
}

func newReporter(out io.Writer, format string) *reporter {
	return &reporter{out: out, format: format}
}

func (r *reporter) writeJSON(result LookupResult) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (r *reporter) incompatible(ver *backup.Version) error {
	found := "unknown"
	if ver != nil {
		found = ver.String()
	}

	if r.format == formatJSON {
		result := LookupResult{
			Mode:    "compatibility",
			Minimum: backup.MinimumSupportedVersion.String(),
		}
		if ver != nil {
			result.Version = found
		}
		return r.writeJSON(result)
	}

	color.New(color.FgRed).Fprintf(r.out, "[-] Backup: %s is not supported (min %s)\n", found, backup.MinimumSupportedVersion)
	return nil
}

func (r *reporter) path(logicalPath string, resolved *backup.ResolvedFile) error {
	if r.format == formatJSON {
		result := LookupResult{Mode: "path", Query: logicalPath, Found: resolved != nil, Compatible: true}
		if resolved != nil {
			result.Files = []backup.ResolvedFile{*resolved}
		}
		return r.writeJSON(result)
	}

	if resolved == nil {
		color.New(color.FgYellow).Fprintln(r.out, "[-] File not found.")
		return nil
	}
	color.New(color.FgGreen).Fprintf(r.out, "[+] Found: %s\n", resolved.Path)
	return nil
}

func (r *reporter) bundle(bundleID string, files []backup.ResolvedFile) error {
	if r.format == formatJSON {
		return r.writeJSON(LookupResult{Mode: "bundle", Query: bundleID, Found: len(files) > 0, Compatible: true, Files: files})
	}

	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(r.out, "[-] No paths found.")
		return nil
	}
	color.New(color.FgGreen).Fprintln(r.out, "[+] Found:")
	for _, file := range files {
		fmt.Fprintf(r.out, "%s -> %s\n", file.Path, file.RelativePath)
	}
	return nil
}

func (r *reporter) domains(domains []string) error {
	if r.format == formatJSON {
		return r.writeJSON(LookupResult{Mode: "domains", Found: len(domains) > 0, Compatible: true, Domains: domains})
	}

	if len(domains) == 0 {
		color.New(color.FgYellow).Fprintln(r.out, "[-] No domains found.")
		return nil
	}
	color.New(color.FgCyan).Fprintf(r.out, "[+] %d domains:\n", len(domains))
	for _, domain := range domains {
		fmt.Fprintf(r.out, "  %s\n", domain)
	}
	return nil
}
