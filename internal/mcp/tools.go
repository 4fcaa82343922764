package mcp

// QueryInput defines the input schema for jump_files, jump_commands and jump_all.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the characters to match, empty lists everything in tie-break order"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SymbolsInput defines the input schema for jump_symbols.
type SymbolsInput struct {
	Query string `json:"query" jsonschema:"the characters to match against symbol names"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
	File  string `json:"file,omitempty" jsonschema:"only search the symbols of this file, relative to the project root"`
}

// QueryOutput defines the output schema of the query tools.
type QueryOutput struct {
	Query   string         `json:"query" jsonschema:"the query that was ranked"`
	Mode    string         `json:"mode" jsonschema:"file, symbol, command or mixed"`
	Total   int            `json:"total" jsonschema:"number of loaded candidates"`
	Count   int            `json:"count" jsonschema:"number of matching candidates before the limit"`
	Results []ResultOutput `json:"results" jsonschema:"ranked matches, best first"`
}

// ResultOutput is one ranked candidate.
type ResultOutput struct {
	Rank    int    `json:"rank"`
	Kind    string `json:"kind" jsonschema:"file, symbol or command"`
	Name    string `json:"name" jsonschema:"the matched text"`
	Score   int    `json:"score" jsonschema:"fuzzy score, higher is better"`
	Matches []int  `json:"matches" jsonschema:"byte offsets of the matched characters in name"`
	Detail  string `json:"detail,omitempty" jsonschema:"language, symbol location or command help"`
	Path    string `json:"path,omitempty" jsonschema:"absolute path of the file to open"`
	Line    int    `json:"line,omitempty" jsonschema:"1-based line to open"`
}

// StatusInput defines the input schema for jump_status (no parameters).
type StatusInput struct{}

// StatusOutput defines the output schema for jump_status.
type StatusOutput struct {
	Project ProjectInfo  `json:"project"`
	Kinds   []KindStatus `json:"kinds"`
	Total   int          `json:"total"`
}

// KindStatus reports how one kind loaded.
type KindStatus struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty" jsonschema:"why the kind could not be loaded"`
}

// ProjectInfo contains information about the searched project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}
