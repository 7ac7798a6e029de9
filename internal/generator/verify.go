package generator

import (
	"bytes"
	"context"
	"regexp"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"golang.org/x/net/html"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
)

// VerifyHooks parses page and fails unless every id is carried by some element.
func VerifyHooks(page []byte, ids ...string) error {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalid, "parse generated page")
	}

	found := map[string]bool{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" {
					found[a.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.New(apperrors.CodeInvalid, "generated page is missing element hooks").
			WithMeta("missing", missing)
	}
	return nil
}

// CheckScript parses src as JavaScript and reports the first syntax error position.
func CheckScript(ctx context.Context, src []byte) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "parse generated script")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	p := bad.StartPoint()
	return apperrors.New(apperrors.CodeInvalid, "generated script has a syntax error").
		WithMeta("line", int(p.Row)+1).
		WithMeta("column", int(p.Column)+1)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}

var moduleScriptSrc = regexp.MustCompile(`<script type="module" src="(\.\./)?js/`)

// RewriteScriptSources points module script tags at build/ instead of js/, keeping a
// leading ../ when present. It reports whether anything changed.
func RewriteScriptSources(page []byte) ([]byte, bool) {
	out := moduleScriptSrc.ReplaceAll(page, []byte(`<script type="module" src="${1}build/`))
	return out, !bytes.Equal(out, page)
}
