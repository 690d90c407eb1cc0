package models

import (
	"sort"
	"strconv"
	"strings"

	"github.com/magfest/uber/internal/config"
)

// MultiChoice stores the checked values of a checkbox group as a
// comma-separated list of ints.
type MultiChoice string

func MultiChoiceOf(vals ...int) MultiChoice {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return MultiChoice(strings.Join(parts, ","))
}

// Ints returns the stored values that belong to opts, in stored order.
// A nil opts keeps every parsable value.
func (mc MultiChoice) Ints(opts config.Opts) []int {
	if mc == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(string(mc), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if opts == nil || opts.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (mc MultiChoice) Has(v int) bool {
	for _, n := range mc.Ints(nil) {
		if n == v {
			return true
		}
	}
	return false
}

// Add returns mc with v appended unless already present.
func (mc MultiChoice) Add(v int) MultiChoice {
	if mc.Has(v) {
		return mc
	}
	return MultiChoiceOf(append(mc.Ints(nil), v)...)
}

// Remove returns mc without v.
func (mc MultiChoice) Remove(v int) MultiChoice {
	var keep []int
	for _, n := range mc.Ints(nil) {
		if n != v {
			keep = append(keep, n)
		}
	}
	return MultiChoiceOf(keep...)
}

// Labels returns the sorted descriptions of the stored values.
func (mc MultiChoice) Labels(opts config.Opts) []string {
	var labels []string
	for _, n := range mc.Ints(opts) {
		if desc, ok := opts.Label(n); ok {
			labels = append(labels, desc)
		}
	}
	sort.Strings(labels)
	return labels
}
