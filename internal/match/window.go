package match

import "regexp"

// Window fires on a trigger line when Corroborate does not appear within
// [line-Before, line+After], inclusive and clipped to the file.
type Window struct {
	Label        string
	Trigger      *regexp.Regexp
	TriggerSkip  *regexp.Regexp
	Corroborate  *regexp.Regexp
	SuppressNear *regexp.Regexp
	Before       int
	After        int
}

func (w *Window) Kind() Kind { return KindWindow }

func (w *Window) Match(f *File) ([]Hit, error) {
	var hits []Hit
	n := len(f.Lines)
	for i, line := range f.Lines {
		loc := w.Trigger.FindStringSubmatchIndex(line.Code)
		if loc == nil {
			continue
		}
		if w.TriggerSkip != nil && w.TriggerSkip.MatchString(line.Text) {
			continue
		}
		lo := max(0, i-w.Before)
		hi := min(n-1, i+w.After)
		if w.corroborated(f, lo, hi) {
			continue
		}
		vars := captures(w.Trigger, line.Code, loc)
		if _, ok := vars["label"]; !ok {
			vars["label"] = w.Label
		}
		hits = append(hits, Hit{Line: line.Number, Vars: vars})
	}
	return hits, nil
}

func (w *Window) corroborated(f *File, lo, hi int) bool {
	for j := lo; j <= hi; j++ {
		l := f.Lines[j]
		if w.SuppressNear != nil && w.SuppressNear.MatchString(l.Text) {
			return true
		}
		if l.CommentOnly() {
			continue
		}
		if w.Corroborate != nil && w.Corroborate.MatchString(l.Text) {
			return true
		}
	}
	return false
}
