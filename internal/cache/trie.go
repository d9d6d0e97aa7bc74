// Package cache provides in-memory lookup structures for command data.
package cache

import (
	"sort"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

type trieNode struct {
	children map[rune]*trieNode
	// word holds the original spelling when this node terminates one.
	word string
	end  bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Trie is a prefix tree with case-insensitive matching. Lookups fold the
// prefix but results keep the spelling that was inserted, so a match can be
// used verbatim as a key elsewhere.
type Trie struct {
	root *trieNode
}

// NewTrie returns an empty Trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Insert adds word to the trie. Words equal under case folding share a node;
// the most recent insert wins.
func (t *Trie) Insert(word string) {
	node := t.root
	for _, r := range fold.String(word) {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	node.word = word
	node.end = true
}

// Search returns every inserted word starting with prefix, compared
// case-insensitively, in sorted order.
func (t *Trie) Search(prefix string) []string {
	node := t.root
	for _, r := range fold.String(prefix) {
		child, ok := node.children[r]
		if !ok {
			return nil
		}
		node = child
	}

	results := []string{}
	collectWords(node, &results)
	sort.Strings(results)
	return results
}

func collectWords(node *trieNode, results *[]string) {
	if node.end {
		*results = append(*results, node.word)
	}
	for _, child := range node.children {
		collectWords(child, results)
	}
}
