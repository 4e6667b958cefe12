package protocol

import (
	"encoding/json/jsontext"
)

// unmarshalResult satisfies RequestInfo.UnmarshalResult's generic decode
// path (support.go). djls never issues typed client-originated requests
// through RequestInfo today, so this is a thin fallback rather than a
// per-method dispatch table.
func unmarshalResult(_ Method, raw jsontext.Value) (any, error) {
	return unmarshalAny(raw)
}

// Position is a zero-based line/character offset (UTF-16 code units, per
// the LSP spec) into a document.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) region of a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a document URI with a range inside it.
type Location struct {
	Uri   DocumentUri `json:"uri"`
	Range Range       `json:"range"`
}

// IntegerOrString models an LSP value typed `integer | string` (diagnostic
// codes, request IDs). Exactly one field is set.
type IntegerOrString struct {
	Integer *int64  `json:"-"`
	String  *string `json:"-"`
}

func (v IntegerOrString) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.String != nil:
		return enc.WriteToken(jsontext.String(*v.String))
	case v.Integer != nil:
		return enc.WriteToken(jsontext.Int(*v.Integer))
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

// TextDocumentIdentifier identifies a document by URI only.
type TextDocumentIdentifier struct {
	Uri DocumentUri `json:"uri"`
}

// VersionedTextDocumentIdentifier adds the editor's version counter.
type VersionedTextDocumentIdentifier struct {
	Uri     DocumentUri `json:"uri"`
	Version int32       `json:"version"`
}

// TextDocumentItem is the full content of a just-opened document.
type TextDocumentItem struct {
	Uri        DocumentUri `json:"uri"`
	LanguageId string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams is the common shape of every position-based
// request (hover, completion).
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (p *TextDocumentPositionParams) TextDocumentURI() DocumentUri { return p.TextDocument.Uri }
func (p *TextDocumentPositionParams) TextDocumentPosition() Position {
	return p.Position
}

// DidOpenTextDocumentParams is textDocument/didOpen's payload.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent is one entry of didChange's contentChanges
// array. djls negotiates full-document sync only, so Text always carries
// the complete new content.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// DidChangeTextDocumentParams is textDocument/didChange's payload.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidSaveTextDocumentParams is textDocument/didSave's payload.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// DidCloseTextDocumentParams is textDocument/didClose's payload.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidChangeConfigurationParams is workspace/didChangeConfiguration's
// payload. Settings is left as `any` since its shape is editor/client
// defined (§A.3's editor-first/filesystem-first/editor-only axis decodes
// it further).
type DidChangeConfigurationParams struct {
	Settings any `json:"settings"`
}

// ClientInfo identifies the connecting editor.
type ClientInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
}

// InitializeParams is the initialize request's payload, trimmed to the
// fields djls actually reads.
type InitializeParams struct {
	ProcessId             IntegerOrNull  `json:"processId"`
	ClientInfo            *ClientInfo    `json:"clientInfo,omitempty"`
	RootUri               *DocumentUri   `json:"rootUri,omitempty"`
	WorkspaceFolders      []WorkspaceFolder `json:"workspaceFolders,omitempty"`
	InitializationOptions *InitializationOptions `json:"initializationOptions,omitempty"`
}

// IntegerOrNull models `processId: integer | null`.
type IntegerOrNull struct {
	Integer *int64
}

func (v *IntegerOrNull) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	data, err := dec.ReadValue()
	if err != nil {
		return err
	}
	if string(data) == jsonNullLiteral {
		v.Integer = nil
		return nil
	}
	n, err := unmarshalValue[int64](data)
	if err != nil {
		return err
	}
	v.Integer = &n
	return nil
}

// WorkspaceFolder is one entry of initialize's workspaceFolders list.
type WorkspaceFolder struct {
	Uri  DocumentUri `json:"uri"`
	Name string      `json:"name"`
}

// InitializationOptions is djls's own initialize-time configuration block,
// distinct from the generic workspace/didChangeConfiguration channel.
type InitializationOptions struct {
	ConfigurationPreference *string `json:"configurationPreference,omitempty"`
}

// ServerInfo identifies djls back to the client.
type ServerInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
}

// TextDocumentSyncKind selects how document content changes are reported.
type TextDocumentSyncKind int

const (
	TextDocumentSyncKindNone TextDocumentSyncKind = iota
	TextDocumentSyncKindFull
	TextDocumentSyncKindIncremental
)

// CompletionOptions advertises completion support.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// ServerCapabilities is initialize's capability advertisement, trimmed to
// the surfaces djls implements (§C.5/C.6 of the expanded spec): document
// sync, completion, hover, and diagnostics. No code actions, formatting, or
// execute-command: djls has no autofix/reformat feature.
type ServerCapabilities struct {
	TextDocumentSync   TextDocumentSyncKind `json:"textDocumentSync"`
	CompletionProvider *CompletionOptions   `json:"completionProvider,omitempty"`
	HoverProvider      bool                 `json:"hoverProvider,omitempty"`
}

// InitializeResult is the initialize response.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// CompletionParams is textDocument/completion's payload.
type CompletionParams struct {
	TextDocumentPositionParams
}

// CompletionItem is one completion candidate. InsertTextFormat 2 means
// "Snippet" per the LSP spec (tab stops like `${1:name}` are interpreted).
type CompletionItem struct {
	Label            string  `json:"label"`
	Detail           *string `json:"detail,omitempty"`
	InsertText       *string `json:"insertText,omitempty"`
	InsertTextFormat *int    `json:"insertTextFormat,omitempty"`
}

const InsertTextFormatSnippet = 2

// HoverParams is textDocument/hover's payload.
type HoverParams struct {
	TextDocumentPositionParams
}

// MarkupKind selects how Hover/CompletionItem documentation is rendered.
type MarkupKind string

const MarkupKindMarkdown MarkupKind = "markdown"

// MarkupContent carries rendered documentation text.
type MarkupContent struct {
	Kind  MarkupKind `json:"kind"`
	Value string     `json:"value"`
}

// Hover is textDocument/hover's response.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// DiagnosticSeverity mirrors the LSP spec's 1-4 severity scale.
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// CodeDescription links a diagnostic to external documentation.
type CodeDescription struct {
	Href URI `json:"href"`
}

// Diagnostic is one LSP diagnostic entry.
type Diagnostic struct {
	Range           Range              `json:"range"`
	Severity        *DiagnosticSeverity `json:"severity,omitempty"`
	Code            *IntegerOrString   `json:"code,omitempty"`
	CodeDescription *CodeDescription   `json:"codeDescription,omitempty"`
	Source          *string            `json:"source,omitempty"`
	Message         string             `json:"message"`
}

// PublishDiagnosticsParams is textDocument/publishDiagnostics's payload.
type PublishDiagnosticsParams struct {
	Uri         DocumentUri   `json:"uri"`
	Version     *int32        `json:"version,omitempty"`
	Diagnostics []*Diagnostic `json:"diagnostics"`
}

// LSP method names djls's server dispatches or sends.
const (
	MethodTextDocumentPublishDiagnostics Method = "textDocument/publishDiagnostics"
	MethodTextDocumentCompletion         Method = "textDocument/completion"
	MethodTextDocumentHover              Method = "textDocument/hover"
)

// JSON-RPC error codes used by djls's dispatcher.
const (
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
)
