// Package extract evaluates path queries against fetched documents:
// XPath expressions over HTML/XML trees and dot-separated key paths
// (or raw jq programs) over JSON.
package extract

import (
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"
)

func ParseHTML(r io.Reader) (*html.Node, error) {
	return htmlquery.Parse(r)
}

func ParseXML(r io.Reader) (*xmlquery.Node, error) {
	return xmlquery.Parse(r)
}

// First returns the trimmed text of the expression's first match, or ""
// when nothing matches. Expressions selecting attributes (`@href`) or
// text nodes (`text()`) resolve to the selected value.
func First(doc *html.Node, expr string) (string, error) {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return strings.TrimSpace(htmlquery.InnerText(nodes[0])), nil
}

// All returns the trimmed text of every match, skipping empty results.
func All(doc *html.Node, expr string) ([]string, error) {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, node := range nodes {
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text != "" {
			values = append(values, text)
		}
	}
	return values, nil
}

func FirstXML(doc *xmlquery.Node, expr string) (string, error) {
	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return strings.TrimSpace(nodes[0].InnerText()), nil
}

func AllXML(doc *xmlquery.Node, expr string) ([]string, error) {
	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, node := range nodes {
		text := strings.TrimSpace(node.InnerText())
		if text != "" {
			values = append(values, text)
		}
	}
	return values, nil
}
