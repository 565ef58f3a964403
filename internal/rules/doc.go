// Package rules defines the domain model for agent rules.
//
// A Rule is a metadata record (id, description, language, tags, context,
// core flag) plus an owned ContentSource that can produce the rule's full
// text body on demand. Metadata and content are deliberately separated:
// listing rules never touches the backing files, and the body is only read
// when a caller explicitly asks for it.
//
// Two content source kinds are provided:
//
//   - YAMLFileSource reads the "rule" key of a YAML rule document
//   - MarkdownFileSource reads the body below a markdown file's frontmatter
//
// Sources re-read their backing file on every Load call. Any caching sits
// above this package, in the repository layer.
package rules
