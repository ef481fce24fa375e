// Package links maintains the user-declared links between canvas images and
// answers lineage questions about derived images.
//
// Links are directed and stored twice: the source lists the target in
// LinkedTo and the target lists the source in LinkedFrom. Lineage is the
// separate OriginalImageID tree written when an edit result is created.
package links

import (
	"log"
	"slices"

	"image-workspace/internal/app"
	"image-workspace/internal/image"
)

// Store is the image store the graph reads and proposes updates to.
type Store interface {
	Image(id string) (*image.Image, bool)
	Images() []*image.Image
	Apply(u app.Update) error
	Remove(id string) bool
}

// EdgeKind distinguishes lineage edges from link edges.
type EdgeKind int

const (
	EdgeLineage EdgeKind = iota // parent -> derived image
	EdgeLink                    // link source -> link target
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLineage:
		return "lineage"
	case EdgeLink:
		return "link"
	default:
		return "unknown"
	}
}

// Edge is a drawable relationship between two live images.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph applies link operations to a Store.
type Graph struct {
	store Store
}

// New creates a graph over store.
func New(store Store) *Graph {
	return &Graph{store: store}
}

// Link records a directed link from sourceID to targetID. Self links, links to
// unknown images and links that already exist are no-ops and return false.
func (g *Graph) Link(sourceID, targetID string) (bool, error) {
	if sourceID == "" || sourceID == targetID {
		return false, nil
	}
	source, ok := g.store.Image(sourceID)
	if !ok {
		return false, nil
	}
	target, ok := g.store.Image(targetID)
	if !ok {
		return false, nil
	}

	changed := false
	if !source.LinksTo(targetID) {
		linkedTo := append(slices.Clone(source.LinkedTo), targetID)
		if err := g.store.Apply(app.Update{ID: sourceID, LinkedTo: &linkedTo}); err != nil {
			return false, err
		}
		changed = true
	}
	if !target.LinkedFromID(sourceID) {
		linkedFrom := append(slices.Clone(target.LinkedFrom), sourceID)
		if err := g.store.Apply(app.Update{ID: targetID, LinkedFrom: &linkedFrom}); err != nil {
			return false, err
		}
		changed = true
	}
	if changed {
		log.Printf("Links: linked %s -> %s", sourceID, targetID)
	}
	return changed, nil
}

// Unlink removes the link from sourceID to targetID, both directions of the
// mirrored pair.
func (g *Graph) Unlink(sourceID, targetID string) (bool, error) {
	changed := false
	if source, ok := g.store.Image(sourceID); ok && source.LinksTo(targetID) {
		linkedTo := without(source.LinkedTo, targetID)
		if err := g.store.Apply(app.Update{ID: sourceID, LinkedTo: &linkedTo}); err != nil {
			return false, err
		}
		changed = true
	}
	if target, ok := g.store.Image(targetID); ok && target.LinkedFromID(sourceID) {
		linkedFrom := without(target.LinkedFrom, sourceID)
		if err := g.store.Apply(app.Update{ID: targetID, LinkedFrom: &linkedFrom}); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// RemoveImage deletes an image and strips its id from every other image's
// link lists. Lineage references to it are left in place.
func (g *Graph) RemoveImage(id string) (bool, error) {
	if _, ok := g.store.Image(id); !ok {
		return false, nil
	}
	for _, img := range g.store.Images() {
		if img.ID == id {
			continue
		}
		u := app.Update{ID: img.ID}
		dirty := false
		if img.LinksTo(id) {
			linkedTo := without(img.LinkedTo, id)
			u.LinkedTo = &linkedTo
			dirty = true
		}
		if img.LinkedFromID(id) {
			linkedFrom := without(img.LinkedFrom, id)
			u.LinkedFrom = &linkedFrom
			dirty = true
		}
		if dirty {
			if err := g.store.Apply(u); err != nil {
				return false, err
			}
		}
	}
	removed := g.store.Remove(id)
	if removed {
		log.Printf("Links: removed image %s", id)
	}
	return removed, nil
}

// LinkedImages returns the live targets of id's links, in link order.
func (g *Graph) LinkedImages(id string) []*image.Image {
	img, ok := g.store.Image(id)
	if !ok {
		return nil
	}
	var out []*image.Image
	for _, targetID := range img.LinkedTo {
		if target, ok := g.store.Image(targetID); ok {
			out = append(out, target)
		}
	}
	return out
}

// Parent returns the image id was derived from, if it still exists.
func (g *Graph) Parent(id string) (*image.Image, bool) {
	img, ok := g.store.Image(id)
	if !ok || img.OriginalImageID == "" {
		return nil, false
	}
	return g.store.Image(img.OriginalImageID)
}

// Ancestors returns the lineage chain of id, nearest first. The walk stops at
// a dangling reference or a repeated id.
func (g *Graph) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	for {
		parent, ok := g.Parent(id)
		if !ok || seen[parent.ID] {
			return out
		}
		seen[parent.ID] = true
		out = append(out, parent.ID)
		id = parent.ID
	}
}

// WouldCycle reports whether deriving childID from parentID would make an
// image its own ancestor.
func (g *Graph) WouldCycle(childID, parentID string) bool {
	if childID == parentID {
		return true
	}
	return slices.Contains(g.Ancestors(parentID), childID)
}

// Edges lists the lineage and link edges between images in the snapshot.
// References to images not in the snapshot are skipped.
func Edges(images []*image.Image) []Edge {
	live := make(map[string]bool, len(images))
	for _, img := range images {
		live[img.ID] = true
	}

	var edges []Edge
	seen := make(map[Edge]bool)
	add := func(e Edge) {
		if e.From == e.To || !live[e.From] || !live[e.To] || seen[e] {
			return
		}
		seen[e] = true
		edges = append(edges, e)
	}
	for _, img := range images {
		if img.OriginalImageID != "" {
			add(Edge{From: img.OriginalImageID, To: img.ID, Kind: EdgeLineage})
		}
		for _, target := range img.LinkedTo {
			add(Edge{From: img.ID, To: target, Kind: EdgeLink})
		}
	}
	return edges
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
