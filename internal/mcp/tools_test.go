package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ruleshub/internal/logging"
	"ruleshub/internal/repository"
	"ruleshub/internal/rules"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	content string
	err     error
}

func (s staticSource) Load() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func (s staticSource) Info() rules.SourceInfo {
	return rules.SourceInfo{SourceType: rules.SourceTypeYAMLFile, Path: "static.yaml"}
}

func mustRule(t *testing.T, id, description, language string, tags []string, ruleContext string, isCore bool, source rules.ContentSource) *rules.Rule {
	t.Helper()
	if source == nil {
		source = staticSource{content: "body of " + id}
	}
	rule, err := rules.NewRule(id, description, language, tags, ruleContext, isCore, source)
	require.NoError(t, err)
	return rule
}

func seededRepo(t *testing.T) *repository.Repository {
	t.Helper()
	repo := repository.New()
	seed := []*rules.Rule{
		mustRule(t, "go-style", "Go style guide", "go", []string{"style"}, "", false, nil),
		mustRule(t, "py-style", "Python style guide", "python", []string{"style"}, "", false, nil),
		mustRule(t, "acme-deploy", "Acme deployment rules", "", []string{"ops"}, "Acme", false, nil),
		mustRule(t, "safety", "Always-on safety rule", "", nil, "", true, nil),
	}
	for _, rule := range seed {
		require.NoError(t, repo.Add(rule))
	}
	return repo
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decodeMetadata(t *testing.T, result *mcp.CallToolResult) []RuleMetadata {
	t.Helper()
	var metadata []RuleMetadata
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &metadata))
	return metadata
}

func metadataIDs(metadata []RuleMetadata) []string {
	ids := make([]string, 0, len(metadata))
	for _, md := range metadata {
		ids = append(ids, md.RuleID)
	}
	return ids
}

func TestMetadataToolGeneralOnly(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewMetadataTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rules_metadata", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	metadata := decodeMetadata(t, result)
	assert.Equal(t, []string{"go-style", "py-style"}, metadataIDs(metadata))
}

func TestMetadataToolContextFilter(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewMetadataTool(seededRepo(t), logger)

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
	}{
		{
			name:    "matching context unions with general rules",
			args:    map[string]any{"contextFilter": "Acme"},
			wantIDs: []string{"go-style", "py-style", "acme-deploy"},
		},
		{
			name:    "context filter is case insensitive",
			args:    map[string]any{"contextFilter": "acme"},
			wantIDs: []string{"go-style", "py-style", "acme-deploy"},
		},
		{
			name:    "unknown context falls back to general rules",
			args:    map[string]any{"contextFilter": "NoSuchProject"},
			wantIDs: []string{"go-style", "py-style"},
		},
		{
			name:    "empty filter means no filter",
			args:    map[string]any{"contextFilter": ""},
			wantIDs: []string{"go-style", "py-style"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), callRequest("get_rules_metadata", tt.args))
			require.NoError(t, err)
			require.False(t, result.IsError)
			assert.Equal(t, tt.wantIDs, metadataIDs(decodeMetadata(t, result)))
		})
	}
}

func TestMetadataToolExcludesCoreRules(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewMetadataTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rules_metadata", map[string]any{"contextFilter": "Acme"}))
	require.NoError(t, err)

	for _, md := range decodeMetadata(t, result) {
		assert.NotEqual(t, "safety", md.RuleID)
	}
}

func TestMetadataToolNullAndEmptyFields(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	repo := repository.New()
	require.NoError(t, repo.Add(mustRule(t, "bare", "", "", nil, "", false, nil)))
	tool := NewMetadataTool(repo, logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rules_metadata", nil))
	require.NoError(t, err)

	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &raw))
	require.Len(t, raw, 1)

	// Unset language and context serialize as null; tags always as a list.
	assert.Equal(t, "null", string(raw[0]["language"]))
	assert.Equal(t, "null", string(raw[0]["context"]))
	assert.Equal(t, "[]", string(raw[0]["tags"]))

	var src map[string]string
	require.NoError(t, json.Unmarshal(raw[0]["source"], &src))
	assert.Equal(t, rules.SourceTypeYAMLFile, src["sourceType"])
}

func TestContentToolReturnsBody(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewContentTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rule_content", map[string]any{"ruleId": "go-style"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "body of go-style", resultText(t, result))
}

func TestContentToolUnknownID(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewContentTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rule_content", map[string]any{"ruleId": "missing-rule"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "missing-rule")
}

func TestContentToolMissingArgument(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewContentTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rule_content", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestContentToolLoadFailure(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	repo := repository.New()
	broken := mustRule(t, "broken", "", "", nil, "", false, staticSource{err: errors.New("disk gone")})
	require.NoError(t, repo.Add(broken))
	tool := NewContentTool(repo, logger)

	result, err := tool.Handle(context.Background(), callRequest("get_rule_content", map[string]any{"ruleId": "broken"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "broken")
}

func TestContextsTool(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewContextsTool(seededRepo(t), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_contexts", nil))
	require.NoError(t, err)

	var contexts []string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &contexts))
	assert.Equal(t, []string{"Acme"}, contexts)
}

func TestContextsToolEmptyRepository(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	tool := NewContextsTool(repository.New(), logger)

	result, err := tool.Handle(context.Background(), callRequest("get_contexts", nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestCoreContentTool(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	repo := repository.New()
	require.NoError(t, repo.Add(mustRule(t, "first-core", "", "", nil, "", true, staticSource{content: "always first"})))
	require.NoError(t, repo.Add(mustRule(t, "regular", "", "", nil, "", false, nil)))
	require.NoError(t, repo.Add(mustRule(t, "second-core", "", "", nil, "", true, staticSource{content: "always second"})))
	tool := NewCoreContentTool(repo, logger)

	result, err := tool.Handle(context.Background(), callRequest("get_core_rules_content", nil))
	require.NoError(t, err)

	var contents []string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &contents))
	assert.Equal(t, []string{"always first", "always second"}, contents)
}

func TestCoreContentToolNoCoreRules(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	repo := repository.New()
	require.NoError(t, repo.Add(mustRule(t, "regular", "", "", nil, "", false, nil)))
	tool := NewCoreContentTool(repo, logger)

	result, err := tool.Handle(context.Background(), callRequest("get_core_rules_content", nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestCoreContentToolLoadFailure(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	repo := repository.New()
	require.NoError(t, repo.Add(mustRule(t, "bad-core", "", "", nil, "", true, staticSource{err: errors.New("unreadable")})))
	tool := NewCoreContentTool(repo, logger)

	result, err := tool.Handle(context.Background(), callRequest("get_core_rules_content", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNewServerRegistersTools(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	srv := NewServer(seededRepo(t), logger)
	require.NotNil(t, srv.MCPServer())
}
