// Package mcp exposes the rule repository over the Model Context Protocol
// using the mcp-go library.
//
// The server communicates via stdin/stdout using JSON-RPC 2.0 and offers
// four tools:
//
//   - get_rules_metadata: content-free discovery listing of non-core rules,
//     with optional context filtering (general rules are always included,
//     context-specific rules only when their context matches)
//   - get_rule_content: the full body of one rule by id
//   - get_contexts: every distinct context value in the index
//   - get_core_rules_content: the bodies of all core rules in bulk
//
// Core rules are deliberately invisible to get_rules_metadata: a client is
// expected to fetch core content up front via get_core_rules_content and
// browse the general index separately. This is a visibility partition, not
// an omission.
//
// Each tool is a struct with a Definition and a Handle method; NewServer is
// the composition root that wires them against one repository. No business
// logic lives in the handlers beyond argument handling and serialization.
package mcp
