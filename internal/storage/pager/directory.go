package pager

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sydneydb/sydney/internal/storage"
)

// ───────────────────────────────────────────────────────────────────────────
// File directory — maps (namespace, file name) to a B+Tree root page
// ───────────────────────────────────────────────────────────────────────────
//
// A FileDriver's logical file is itself one B+Tree inside the pager's
// single database file (spec.md §3: FileIdentity addresses one logical
// file per database/table/file triple). The directory is that mapping,
// stored as its own B+Tree whose
//
//   key   = "namespace\x00fileName"
//   value = JSON-encoded DirectoryEntry
//
// The directory's own root page id lives in the superblock (DirectoryRoot),
// so opening a database only ever requires the superblock plus one lookup
// in the directory tree to find any given file's root.

// DirectoryEntry is the value stored in the file directory B+Tree.
type DirectoryEntry struct {
	Namespace  string `json:"namespace"`
	FileName   string `json:"file_name"`
	RootPageID PageID `json:"root_page_id"`
}

// directoryKey constructs the directory lookup key.
func directoryKey(namespace, fileName string) []byte {
	return []byte(namespace + "\x00" + fileName)
}

// Directory manages the file-directory B+Tree.
type Directory struct {
	mu    sync.RWMutex
	pager *Pager
	tree  *BTree
}

// OpenDirectory opens or creates the file directory.
func OpenDirectory(p *Pager, txID TxID) (*Directory, error) {
	sb := p.Superblock()
	dir := &Directory{pager: p}

	if sb.DirectoryRoot == InvalidPageID {
		bt, err := CreateBTree(p, txID)
		if err != nil {
			return nil, fmt.Errorf("create directory tree: %w", err)
		}
		dir.tree = bt
		p.UpdateSuperblock(func(s *Superblock) {
			s.DirectoryRoot = bt.Root()
		})
	} else {
		dir.tree = NewBTree(p, sb.DirectoryRoot)
	}
	return dir, nil
}

// PutEntry upserts a directory entry within the given transaction.
func (d *Directory) PutEntry(txID TxID, entry DirectoryEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := directoryKey(entry.Namespace, entry.FileName)
	val, err := storage.JSONMarshal(entry)
	if err != nil {
		return err
	}
	return d.tree.Insert(txID, key, val)
}

// GetEntry retrieves a directory entry. Returns nil if not found.
func (d *Directory) GetEntry(namespace, fileName string) (*DirectoryEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	val, found, err := d.tree.Get(directoryKey(namespace, fileName))
	if err != nil || !found {
		return nil, err
	}
	var entry DirectoryEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes a directory entry within the given transaction.
func (d *Directory) DeleteEntry(txID TxID, namespace, fileName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.tree.Delete(txID, directoryKey(namespace, fileName))
	return err
}

// ListFiles returns every file name registered under namespace.
func (d *Directory) ListFiles(namespace string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	prefix := []byte(namespace + "\x00")
	var names []string
	err := d.tree.ScanRange(prefix, nil, func(key, val []byte) bool {
		if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
			return false // past this namespace
		}
		names = append(names, string(key[len(prefix):]))
		return true
	})
	sort.Strings(names)
	return names, err
}

// Root returns the directory tree's root page ID.
func (d *Directory) Root() PageID { return d.tree.Root() }
