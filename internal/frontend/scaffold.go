package frontend

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/luxequeer/deployer/internal/content"
)

const scaffoldIndex = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Luxe Queer Magazine</title>
</head>
<body>
    <header>
        <nav>
            <a href="#features">Features</a>
            <a href="pages/octavia.html">Octavia</a>
            <a href="subscribe.html">Subscribe</a>
        </nav>
    </header>
    <section class="blue-lipstick-banner">
        <span class="blue-lipstick-mark"></span>
        <h2>{{QUOTE}}</h2>
    </section>
    <section id="features">
        <a class="feature-link" href="features/fashion.html">Fashion</a>
        <a class="feature-link" href="features/art.html">Art &amp; Culture</a>
        <a class="feature-link" href="features/travel.html">Travel</a>
    </section>
    <form class="newsletter-form">
        <input type="email" placeholder="Your email">
        <button type="submit">Subscribe</button>
    </form>
    <footer>
        <a href="https://instagram.com/luxequeer">Instagram</a>
        <a href="mailto:contact@luxequeer.com">Contact</a>
    </footer>
    <script type="module" src="js/main.js"></script>
</body>
</html>
`

// Scaffold lays out a site tree for the deployer: js/main.js with the rendered
// interaction script, a pages/ directory, and a minimal index.html. Existing files
// are left untouched. It returns the paths it created.
func Scaffold(fs billy.Filesystem, c *content.Catalog) ([]string, error) {
	script, err := Script(c)
	if err != nil {
		return nil, err
	}

	if err := fs.MkdirAll("pages", 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}

	index := []byte(strings.Replace(scaffoldIndex, "{{QUOTE}}", html.EscapeString(c.Banner.Quotes[0]), 1))

	var created []string
	for _, f := range []struct {
		path string
		data []byte
	}{
		{"js/main.js", []byte(script)},
		{"index.html", index},
	} {
		ok, err := writeIfAbsent(fs, f.path, f.data)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, f.path)
		}
	}
	return created, nil
}

func writeIfAbsent(fs billy.Filesystem, path string, data []byte) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := util.WriteFile(fs, path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
