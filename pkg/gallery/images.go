package gallery

import "sync"

// ImageList keeps image URIs in insertion order without duplicates
type ImageList struct {
	mu    sync.RWMutex
	items []string
	seen  map[string]struct{}
}

func NewImageList() *ImageList {
	return &ImageList{
		seen: make(map[string]struct{}),
	}
}

// Add appends uri unless it is already present and reports whether it was added
func (l *ImageList) Add(uri string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.seen[uri]; exists {
		return false
	}
	l.seen[uri] = struct{}{}
	l.items = append(l.items, uri)
	return true
}

// Items returns a copy of the list
func (l *ImageList) Items() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := make([]string, len(l.items))
	copy(items, l.items)
	return items
}

func (l *ImageList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
