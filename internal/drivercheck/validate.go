// Package drivercheck catches syntax errors in pod driver scripts before
// a pod is launched.
package drivercheck

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxError locates one syntax error in a driver.
type SyntaxError struct {
	Driver  string
	Line    uint32 // 0-indexed
	Column  uint32 // 0-indexed
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Driver, e.Line+1, e.Column+1, e.Message)
}

// Checker reads drivers from a billy filesystem.
type Checker struct {
	fs billy.Filesystem
}

// NewChecker reads drivers from fs.
func NewChecker(fs billy.Filesystem) *Checker {
	return &Checker{fs: fs}
}

// Check parses the driver at path and returns its syntax errors. Drivers
// in languages without a grammar (NCL, R) pass through with nil.
func (c *Checker) Check(ctx context.Context, path string) ([]SyntaxError, error) {
	lang := languageForPath(path)
	if lang == nil {
		return nil, nil
	}
	content, err := util.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read driver: %w", err)
	}
	return Errors(ctx, content, path, lang)
}

// Errors returns all ERROR and MISSING node locations in content.
func Errors(ctx context.Context, content []byte, path string, lang *sitter.Language) ([]SyntaxError, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", path, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", path)
	}
	if !root.HasError() {
		return nil, nil
	}

	var errs []SyntaxError
	collectErrors(root, path, &errs)
	if len(errs) == 0 {
		errs = append(errs, SyntaxError{Driver: path, Message: "AST contains errors"})
	}
	return errs, nil
}

// collectErrors gathers ERROR/MISSING nodes without descending into them.
func collectErrors(node *sitter.Node, path string, errs *[]SyntaxError) {
	if node.IsError() || node.IsMissing() {
		msg := "syntax error"
		if node.IsMissing() {
			msg = "missing " + node.Type()
		}
		*errs = append(*errs, SyntaxError{
			Driver:  path,
			Line:    node.StartPoint().Row,
			Column:  node.StartPoint().Column,
			Message: msg,
		})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, path, errs)
		}
	}
}

func languageForPath(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}
