package main

import "github.com/jward/pascalfix"

// CLIResult is the top-level envelope for json and yaml output.
type CLIResult struct {
	Command string    `json:"command" yaml:"command"`
	Results []CLIFile `json:"results" yaml:"results"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIFile is the outcome for one file.
type CLIFile struct {
	Path        string      `json:"path" yaml:"path"`
	Changed     bool        `json:"changed" yaml:"changed"`
	Written     bool        `json:"written" yaml:"written"`
	ImportAdded bool        `json:"import_added" yaml:"import_added"`
	Renames     []CLIRename `json:"renames" yaml:"renames"`
}

// CLIRename is a single property rename.
type CLIRename struct {
	Container string `json:"container" yaml:"container"`
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Annotated bool   `json:"annotated" yaml:"annotated"`
}

func toCLIFile(res *pascalfix.Result, written bool) CLIFile {
	f := CLIFile{
		Path:        res.Path,
		Changed:     res.Changed(),
		Written:     written,
		ImportAdded: res.ImportAdded,
		Renames:     []CLIRename{},
	}
	for _, r := range res.Renames {
		f.Renames = append(f.Renames, CLIRename{
			Container: r.Container,
			From:      r.From,
			To:        r.To,
			Annotated: r.Annotated,
		})
	}
	return f
}
