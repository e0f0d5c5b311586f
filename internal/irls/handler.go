// Package irls implements the editor-facing introspection server of
// SPEC_FULL.md's cmd/scatha-irls: opening a .sir file parses and
// validates it and publishes diagnostics, and two custom
// workspace/executeCommand verbs expose the pass pipeline and
// dominator tree to a client without ever touching a running VM or
// bytecode (this stays inside the middle-end's external interface,
// unlike the out-of-scope source-level debugger).
//
// Grounded on internal/lsp/handler.go's KansoHandler: a mutex-guarded
// per-URI cache, the same Initialize/Initialized/Shutdown/
// TextDocumentDidOpen/DidChange/DidClose wiring, generalized from
// Kanso source text and *ast.Contract to textual IR and *ir.Module.
package irls

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"scatha/internal/cfg"
	ctx "scatha/internal/context"
	"scatha/internal/ir"
	"scatha/internal/irtext"
	"scatha/internal/passes"
	"scatha/internal/pipeline"

	_ "scatha/internal/promote" // registers "mem2reg"
)

// RunPipelineCommand and DomTreeCommand are the workspace/executeCommand
// names this server understands.
const (
	RunPipelineCommand = "scatha.runPipeline"
	DomTreeCommand     = "scatha.domTree"
)

// Handler implements the glsp-wired LSP surface for textual IR files.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	ctxs    map[string]*ctx.Context
	modules map[string]*ir.Module
}

// NewHandler returns an empty Handler, ready to be wired into a
// protocol.Handler the way cmd/kanso-lsp/main.go wires KansoHandler.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		ctxs:    make(map[string]*ctx.Context),
		modules: make(map[string]*ir.Module),
	}
}

func (h *Handler) Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("scatha-irls Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{RunPipelineCommand, DomTreeCommand},
			},
		},
	}, nil
}

func (h *Handler) Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("scatha-irls Initialized")
	return nil
}

func (h *Handler) Shutdown(context *glsp.Context) error {
	log.Println("scatha-irls Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	diagnostics := h.update(params.TextDocument.URI, params.TextDocument.Text)
	sendDiagnostics(context, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// TextDocumentSyncKindFull: the last change event carries the whole
	// document, matching KansoHandler's full-sync assumption.
	change := params.ContentChanges[len(params.ContentChanges)-1]
	text, ok := change.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return fmt.Errorf("irls: unexpected content change shape for %s", params.TextDocument.URI)
	}
	diagnostics := h.update(params.TextDocument.URI, text.Text)
	sendDiagnostics(context, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.ctxs, path)
	delete(h.modules, path)
	return nil
}

// update reparses and revalidates the document at uri, caching the
// result and returning diagnostics to publish (empty on success).
func (h *Handler) update(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	path, err := uriToPath(uri)
	if err != nil {
		return []protocol.Diagnostic{{Message: err.Error(), Severity: ptrSeverity(protocol.DiagnosticSeverityError)}}
	}

	c := ctx.New()
	m, err := irtext.Parse(text, c)
	if err != nil {
		return ConvertParseError(err)
	}

	var diagnostics []protocol.Diagnostic
	for _, verr := range ir.Validate(m) {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    wholeFirstLine,
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("scatha-irls"),
			Message:  verr.Error(),
		})
	}

	h.mu.Lock()
	h.content[path] = text
	h.ctxs[path] = c
	h.modules[path] = m
	h.mu.Unlock()

	return diagnostics
}

// ExecuteCommand dispatches the two custom verbs this server adds to
// the protocol: running a pipeline string over an opened module, and
// reporting one function's dominator tree.
func (h *Handler) ExecuteCommand(context *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case RunPipelineCommand:
		return h.runPipeline(params.Arguments)
	case DomTreeCommand:
		return h.domTree(params.Arguments)
	default:
		return nil, fmt.Errorf("irls: unknown command %q", params.Command)
	}
}

// runPipeline expects arguments [uri string, pipeline string] and
// returns the printed textual IR after running pipeline over the
// module cached for uri.
func (h *Handler) runPipeline(args []any) (any, error) {
	uri, pipelineStr, err := twoStringArgs(args)
	if err != nil {
		return nil, err
	}
	path, err := uriToPath(protocol.DocumentUri(uri))
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	c, okC := h.ctxs[path]
	m, okM := h.modules[path]
	h.mu.RUnlock()
	if !okC || !okM {
		return nil, fmt.Errorf("irls: %s is not open", uri)
	}

	nodes, err := pipeline.Parse(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("irls: bad pipeline string: %w", err)
	}
	if _, err := passes.RunPipeline(c, m, nodes, passes.Options{ValidateAfterEachPass: true}); err != nil {
		return nil, err
	}
	return irtext.Print(m), nil
}

// domTreeResult is the JSON shape returned by the domTree command: one
// entry per basic block, naming its immediate dominator (empty for the
// entry block).
type domTreeResult struct {
	Block string `json:"block"`
	IDom  string `json:"idom"`
}

// domTree expects arguments [uri string, functionName string].
func (h *Handler) domTree(args []any) (any, error) {
	uri, fnName, err := twoStringArgs(args)
	if err != nil {
		return nil, err
	}
	path, err := uriToPath(protocol.DocumentUri(uri))
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	m, ok := h.modules[path]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("irls: %s is not open", uri)
	}

	fn := m.FindFunction(fnName)
	if fn == nil {
		return nil, fmt.Errorf("irls: no function named %q", fnName)
	}

	tree := cfg.Dominance(fn)
	out := make([]domTreeResult, 0, len(fn.Blocks))
	for _, bb := range fn.Blocks {
		idom := tree.IDom(bb)
		name := ""
		if idom != nil {
			name = idom.Name()
		}
		out = append(out, domTreeResult{Block: bb.Name(), IDom: name})
	}
	return out, nil
}

func twoStringArgs(args []any) (a, b string, err error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("irls: expected 2 arguments, got %d", len(args))
	}
	a, ok := args[0].(string)
	if !ok {
		return "", "", fmt.Errorf("irls: argument 0: expected a string")
	}
	b, ok = args[1].(string)
	if !ok {
		return "", "", fmt.Errorf("irls: argument 1: expected a string")
	}
	return a, b, nil
}

func uriToPath(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnostics(context *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
