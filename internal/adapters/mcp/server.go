// Package mcpadapter exposes FAQ search and answering as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const (
	ServerName    = "campus-faq-assistant"
	ServerVersion = "1.0.0"

	defaultLimit = 5
	maxLimit     = 20
)

type Server struct {
	mcp   *server.MCPServer
	query ports.FAQQueryService
}

func NewServer(query ports.FAQQueryService) *Server {
	s := &Server{
		mcp:   server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		query: query,
	}
	s.mcp.AddTool(searchFAQTool(), s.handleSearchFAQ)
	s.mcp.AddTool(askFAQTool(), s.handleAskFAQ)
	return s
}

// Serve blocks on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func searchFAQTool() mcp.Tool {
	return mcp.NewTool("search_faq",
		mcp.WithDescription("Busca en la base de preguntas frecuentes institucionales y devuelve los fragmentos mejor rankeados."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Consulta en lenguaje natural")),
		mcp.WithNumber("limit", mcp.Description("Cantidad máxima de fuentes (1-20)"), mcp.Min(1), mcp.Max(maxLimit)),
	)
}

func askFAQTool() mcp.Tool {
	return mcp.NewTool("ask_faq",
		mcp.WithDescription("Responde una pregunta usando las fuentes institucionales recuperadas."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Pregunta del estudiante")),
		mcp.WithNumber("limit", mcp.Description("Cantidad máxima de fuentes (1-20)"), mcp.Min(1), mcp.Max(maxLimit)),
	)
}

type sourceView struct {
	ID        string  `json:"id"`
	Source    string  `json:"source,omitempty"`
	Section   string  `json:"section,omitempty"`
	Relevance float64 `json:"relevance"`
	Text      string  `json:"text"`
}

func (s *Server) handleSearchFAQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit, err := toolLimit(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.query.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	payload := struct {
		Strategy domain.Strategy `json:"strategy"`
		Expanded bool            `json:"expanded"`
		Sources  []sourceView    `json:"sources"`
	}{Strategy: result.Config.Strategy, Expanded: result.Expanded, Sources: []sourceView{}}
	for _, src := range result.Sources {
		payload.Sources = append(payload.Sources, toSourceView(src.Candidate))
	}
	return jsonResult(payload)
}

func (s *Server) handleAskFAQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	limit, err := toolLimit(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.query.Answer(ctx, question, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	payload := struct {
		Answer    string       `json:"answer"`
		NoSources bool         `json:"no_sources"`
		Sources   []sourceView `json:"sources"`
	}{Answer: answer.Text, NoSources: answer.NoSources, Sources: []sourceView{}}
	for _, c := range answer.Sources {
		payload.Sources = append(payload.Sources, toSourceView(c))
	}
	return jsonResult(payload)
}

func toolLimit(request mcp.CallToolRequest) (int, error) {
	limit := request.GetInt("limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return limit, nil
}

func toSourceView(c domain.Candidate) sourceView {
	return sourceView{
		ID:        c.Chunk.ID,
		Source:    c.Chunk.Metadata.Source,
		Section:   c.Chunk.Metadata.Section,
		Relevance: c.RelevanceScore,
		Text:      c.Chunk.Text,
	}
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
