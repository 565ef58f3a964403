package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ruleshub/internal/logging"
	"ruleshub/internal/repository"
	"ruleshub/internal/rules"

	"github.com/mark3labs/mcp-go/mcp"
)

// RuleMetadata is the serialized, content-free view of a rule used for
// discovery. Language and context are emitted as null when unset.
type RuleMetadata struct {
	RuleID      string      `json:"ruleId"`
	Description string      `json:"description"`
	Language    *string     `json:"language"`
	Tags        []string    `json:"tags"`
	Context     *string     `json:"context"`
	Source      MetadataSrc `json:"source"`
}

// MetadataSrc identifies the kind of backing source a rule came from.
type MetadataSrc struct {
	SourceType string `json:"sourceType"`
}

func metadataFor(rule *rules.Rule) RuleMetadata {
	md := RuleMetadata{
		RuleID:      rule.ID,
		Description: rule.Description,
		Tags:        rule.Tags,
		Source:      MetadataSrc{SourceType: rule.Source.Info().SourceType},
	}
	if md.Tags == nil {
		md.Tags = []string{}
	}
	if rule.Language != "" {
		md.Language = &rule.Language
	}
	if rule.Context != "" {
		md.Context = &rule.Context
	}
	return md
}

// MetadataTool lists non-core rule metadata with optional context filtering.
type MetadataTool struct {
	repo   *repository.Repository
	logger *logging.AppLogger
}

// NewMetadataTool creates the get_rules_metadata tool.
func NewMetadataTool(repo *repository.Repository, logger *logging.AppLogger) *MetadataTool {
	return &MetadataTool{repo: repo, logger: logger}
}

func (t *MetadataTool) Definition() mcp.Tool {
	return mcp.NewTool("get_rules_metadata",
		mcp.WithDescription("Get metadata for all non-core rules in the index. "+
			"Optionally filter by context: general rules are always included, "+
			"context-specific rules only when their context matches. Core rules are excluded."),
		mcp.WithString("contextFilter",
			mcp.Description("Context to filter by (e.g. a project name). Omit for general rules only."),
		),
	)
}

func (t *MetadataTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := repository.Criteria{}

	// An omitted or empty filter means "general rules only".
	if filter := req.GetString("contextFilter", ""); filter != "" {
		criteria.Context = &filter
	}

	isCore := false
	criteria.IsCore = &isCore

	matched := t.repo.ByCriteria(criteria)
	metadata := make([]RuleMetadata, 0, len(matched))
	for _, rule := range matched {
		metadata = append(metadata, metadataFor(rule))
	}

	t.logger.Debug("Listed rule metadata", "count", len(metadata))
	return jsonResult(metadata)
}

// ContentTool returns the full body of one rule by id.
type ContentTool struct {
	repo   *repository.Repository
	logger *logging.AppLogger
}

// NewContentTool creates the get_rule_content tool.
func NewContentTool(repo *repository.Repository, logger *logging.AppLogger) *ContentTool {
	return &ContentTool{repo: repo, logger: logger}
}

func (t *ContentTool) Definition() mcp.Tool {
	return mcp.NewTool("get_rule_content",
		mcp.WithDescription("Get the content of a specific rule by its ID."),
		mcp.WithString("ruleId",
			mcp.Required(),
			mcp.Description("The unique identifier of the rule."),
		),
	)
}

func (t *ContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID, err := req.RequireString("ruleId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := t.repo.Content(ruleID)
	if err != nil {
		var notFound *rules.NotFoundError
		if errors.As(err, &notFound) {
			return mcp.NewToolResultError(fmt.Sprintf("rule with ID '%s' not found", notFound.ID)), nil
		}
		t.logger.Error("Failed to load rule content", "id", ruleID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to load content for rule '%s': %v", ruleID, err)), nil
	}

	return mcp.NewToolResultText(content), nil
}

// ContextsTool lists every distinct context value.
type ContextsTool struct {
	repo   *repository.Repository
	logger *logging.AppLogger
}

// NewContextsTool creates the get_contexts tool.
func NewContextsTool(repo *repository.Repository, logger *logging.AppLogger) *ContextsTool {
	return &ContextsTool{repo: repo, logger: logger}
}

func (t *ContextsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_contexts",
		mcp.WithDescription("Get all available rule contexts. Returns an empty list if no contexts exist."),
	)
}

func (t *ContextsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contexts := t.repo.AvailableContexts()
	if contexts == nil {
		contexts = []string{}
	}
	return jsonResult(contexts)
}

// CoreContentTool returns the bodies of all core rules in bulk.
type CoreContentTool struct {
	repo   *repository.Repository
	logger *logging.AppLogger
}

// NewCoreContentTool creates the get_core_rules_content tool.
func NewCoreContentTool(repo *repository.Repository, logger *logging.AppLogger) *CoreContentTool {
	return &CoreContentTool{repo: repo, logger: logger}
}

func (t *CoreContentTool) Definition() mcp.Tool {
	return mcp.NewTool("get_core_rules_content",
		mcp.WithDescription("Get the content of every core rule. Core rules always apply "+
			"and should be fetched up front, before browsing the general index."),
	)
}

func (t *CoreContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Core rules are scoped by neither context nor language; list them all
	// in insertion order.
	contents := []string{}
	for _, rule := range t.repo.All() {
		if !rule.IsCore {
			continue
		}
		body, err := t.repo.Content(rule.ID)
		if err != nil {
			t.logger.Error("Failed to load core rule content", "id", rule.ID, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("failed to load content for core rule '%s': %v", rule.ID, err)), nil
		}
		contents = append(contents, body)
	}

	return jsonResult(contents)
}

// jsonResult serializes a value as indented JSON tool output.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
