package compiler

import (
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/op"
)

// ---------------------------------------------------------------------------
// Second pass: resolve tag and data conditions
// ---------------------------------------------------------------------------

// Participants share one id space: surfaces first, then modifiers, then
// components. Only surfaces and modifiers activate tags.

type condKind uint8

const (
	// condAbsent means no activator of a tag could be evaluated because all
	// of them were already being resolved.
	condAbsent condKind = iota
	condTrue
	condFalse
	condExpr
)

type condResult struct {
	kind condKind
	expr op.Op
}

var (
	resultTrue   = condResult{kind: condTrue}
	resultFalse  = condResult{kind: condFalse}
	resultAbsent = condResult{kind: condAbsent}
)

func resultOf(o op.Op) condResult {
	if v, ok := op.BoolValue(o); ok {
		if v {
			return resultTrue
		}
		return resultFalse
	}
	return condResult{kind: condExpr, expr: o}
}

// op returns the condition as an operation. Absent results must be resolved
// by the caller first.
func (r condResult) op() op.Op {
	switch r.kind {
	case condTrue:
		return op.True()
	case condFalse:
		return op.False()
	case condExpr:
		return r.expr
	}
	panic("compiler: absent condition has no operation")
}

// idSet is a small sorted set of ids.
type idSet []int

func (s idSet) has(id int) bool {
	_, ok := slices.BinarySearch(s, id)
	return ok
}

// with returns a copy of s including id.
func (s idSet) with(id int) idSet {
	i, ok := slices.BinarySearch(s, id)
	if ok {
		return s
	}
	out := make(idSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, id)
	return append(out, s[i:]...)
}

// keyWithin writes the members of s that are also in filter.
func (s idSet) keyWithin(b *strings.Builder, filter map[int]bool) {
	for _, id := range s {
		if filter[id] {
			b.WriteString(strconv.Itoa(id))
			b.WriteByte(',')
		}
	}
	b.WriteByte('|')
}

type secondPass struct {
	fp     *firstPass
	log    *errlog.Log
	policy TagPolicy

	numSurfaces  int
	numModifiers int

	// surfacesPerTag holds every participant that can influence a tag, and
	// tagsPerTag every tag, both transitively.
	surfacesPerTag []map[int]bool
	tagsPerTag     []map[int]bool

	memo map[string]condResult
}

func newSecondPass(fp *firstPass, log *errlog.Log, policy TagPolicy) *secondPass {
	return &secondPass{
		fp:           fp,
		log:          log,
		policy:       policy,
		numSurfaces:  len(fp.surfaces),
		numModifiers: len(fp.modifiers),
		memo:         make(map[string]condResult),
	}
}

func (s *secondPass) participantTags(id int) (pos, neg []string) {
	switch {
	case id < s.numSurfaces:
		e := &s.fp.surfaces[id]
		return e.PositiveTags, e.NegativeTags
	case id < s.numSurfaces+s.numModifiers:
		e := &s.fp.modifiers[id-s.numSurfaces]
		return e.PositiveTags, e.NegativeTags
	}
	e := &s.fp.components[id-s.numSurfaces-s.numModifiers]
	return e.PositiveTags, e.NegativeTags
}

func (s *secondPass) objectCondition(id int) op.Op {
	if id < s.numSurfaces {
		return s.fp.surfaces[id].ObjectCondition
	}
	return s.fp.modifiers[id-s.numSurfaces].ObjectCondition
}

func (s *secondPass) activators(tag int) []int {
	t := &s.fp.tags[tag]
	ids := make([]int, 0, len(t.Surfaces)+len(t.Modifiers))
	ids = append(ids, t.Surfaces...)
	for _, m := range t.Modifiers {
		ids = append(ids, s.numSurfaces+m)
	}
	return ids
}

// computeClosures fills surfacesPerTag and tagsPerTag with a breadth first
// propagation over activators and the tags they require.
func (s *secondPass) computeClosures() {
	n := len(s.fp.tags)
	direct := make([][]int, n)
	for t := range n {
		seen := make(map[int]bool)
		for _, p := range s.activators(t) {
			pos, neg := s.participantTags(p)
			for _, name := range slices.Concat(pos, neg) {
				if i, ok := s.fp.tagIndex[name]; ok && !seen[i] {
					seen[i] = true
					direct[t] = append(direct[t], i)
				}
			}
		}
	}

	s.surfacesPerTag = make([]map[int]bool, n)
	s.tagsPerTag = make([]map[int]bool, n)
	for t := range n {
		tags := map[int]bool{t: true}
		queue := []int{t}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, d := range direct[cur] {
				if !tags[d] {
					tags[d] = true
					queue = append(queue, d)
				}
			}
		}
		surfaces := make(map[int]bool)
		for d := range tags {
			for _, p := range s.activators(d) {
				surfaces[p] = true
			}
		}
		s.tagsPerTag[t] = tags
		s.surfacesPerTag[t] = surfaces
	}
}

// run resolves every condition recorded by the first pass.
func (s *secondPass) run() {
	s.computeClosures()

	for i := range s.fp.surfaces {
		e := &s.fp.surfaces[i]
		data := s.dataCondition(i, e.PositiveTags, e.NegativeTags, nil, nil, nil, nil)
		e.FinalCondition = op.And(e.ObjectCondition, data.op())
	}
	for i := range s.fp.modifiers {
		e := &s.fp.modifiers[i]
		data := s.dataCondition(s.numSurfaces+i, e.PositiveTags, e.NegativeTags, nil, nil, nil, nil)
		e.FinalCondition = op.And(e.ObjectCondition, data.op())
	}
	for i := range s.fp.components {
		e := &s.fp.components[i]
		id := s.numSurfaces + s.numModifiers + i
		e.ComponentCondition = s.dataCondition(id, e.PositiveTags, e.NegativeTags, nil, nil, nil, nil).op()
	}
	for i := range s.fp.tags {
		t := &s.fp.tags[i]
		r := s.tagCondition(i, nil, nil, nil, nil)
		if r.kind == condAbsent {
			r = s.absentAsResult()
		}
		t.GenericCondition = r.op()
		if r.kind == condFalse {
			s.log.Infof(nil, "Tag [%s] can never be activated.", t.Name)
		}
	}
}

func (s *secondPass) absentAsResult() condResult {
	if s.policy == AbsentTagTrue {
		return resultTrue
	}
	return resultFalse
}

// dataCondition returns the condition under which the tags required by
// participant id hold.
func (s *secondPass) dataCondition(id int, positive, negative []string, posSurf, negSurf, posTag, negTag idSet) condResult {
	if posSurf.has(id) {
		return resultTrue
	}
	if negSurf.has(id) {
		return resultFalse
	}

	var acc op.Op = op.True()

	for _, name := range positive {
		t, ok := s.fp.tagIndex[name]
		if !ok {
			return resultFalse
		}
		r := s.tagCondition(t, posSurf.with(id), negSurf, posTag, negTag)
		if r.kind == condAbsent {
			r = s.absentAsResult()
		}
		switch r.kind {
		case condFalse:
			return resultFalse
		case condExpr:
			acc = op.And(acc, r.expr)
		}
	}

	for _, name := range negative {
		t, ok := s.fp.tagIndex[name]
		if !ok {
			continue
		}
		r := s.tagCondition(t, negSurf, posSurf.with(id), negTag, posTag)
		if r.kind == condAbsent {
			r = s.absentAsResult()
		}
		switch r.kind {
		case condTrue:
			return resultFalse
		case condExpr:
			acc = op.And(acc, op.Not(r.expr))
		}
	}

	return resultOf(acc)
}

// tagCondition returns the condition under which tag is active: any of its
// activators enabled with its own tags satisfied.
func (s *secondPass) tagCondition(tag int, posSurf, negSurf, posTag, negTag idSet) condResult {
	if posTag.has(tag) {
		return resultTrue
	}
	if negTag.has(tag) {
		return resultFalse
	}

	var kb strings.Builder
	kb.WriteString(strconv.Itoa(tag))
	kb.WriteByte(':')
	posSurf.keyWithin(&kb, s.surfacesPerTag[tag])
	negSurf.keyWithin(&kb, s.surfacesPerTag[tag])
	posTag.keyWithin(&kb, s.tagsPerTag[tag])
	negTag.keyWithin(&kb, s.tagsPerTag[tag])
	key := kb.String()
	if r, ok := s.memo[key]; ok {
		return r
	}

	result := resultAbsent
	var acc op.Op
	for _, p := range s.activators(tag) {
		if posSurf.has(p) || negSurf.has(p) {
			continue
		}
		if result.kind == condAbsent {
			result = resultFalse
		}
		pos, neg := s.participantTags(p)
		data := s.dataCondition(p, pos, neg, posSurf, negSurf, posTag.with(tag), negTag)
		if data.kind == condFalse {
			continue
		}
		term := op.And(s.objectCondition(p), data.op())
		if op.IsFalse(term) {
			continue
		}
		if acc == nil {
			acc = term
		} else {
			acc = op.Or(acc, term)
		}
	}
	if acc != nil {
		result = resultOf(acc)
	}

	s.memo[key] = result
	return result
}
