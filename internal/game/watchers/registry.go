package watchers

import (
	"sort"

	"github.com/cardclash/clash-server-go/internal/game"
)

// Registry manages the watchers of one match. It is owned by the match
// actor and is not safe for concurrent use.
type Registry struct {
	watchers map[string]Watcher
	byScope  map[Scope][]Watcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		watchers: make(map[string]Watcher),
		byScope:  make(map[Scope][]Watcher),
	}
}

// NewDefaultRegistry creates a registry with every stock watcher.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Add(NewSpellsCastWatcher())
	r.Add(NewCreaturesDiedWatcher())
	r.Add(NewPlayerDamageWatcher())
	r.Add(NewAttacksThisTurnWatcher())
	return r
}

// Add registers a watcher, replacing any watcher with the same key.
func (r *Registry) Add(w Watcher) {
	if w == nil {
		return
	}
	r.Remove(w.Key())
	r.watchers[w.Key()] = w
	r.byScope[w.Scope()] = append(r.byScope[w.Scope()], w)
}

// Remove drops a watcher by key.
func (r *Registry) Remove(key string) {
	w, ok := r.watchers[key]
	if !ok {
		return
	}
	delete(r.watchers, key)

	scoped := r.byScope[w.Scope()]
	for i, candidate := range scoped {
		if candidate.Key() == key {
			r.byScope[w.Scope()] = append(scoped[:i], scoped[i+1:]...)
			break
		}
	}
}

// Get returns a watcher by key.
func (r *Registry) Get(key string) (Watcher, bool) {
	w, ok := r.watchers[key]
	return w, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.watchers))
	for k := range r.watchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Observe feeds actions to every watcher in order. A StartTurn resets the
// turn scoped watchers before the rest of the batch is seen.
func (r *Registry) Observe(actions []game.Action) {
	for _, a := range actions {
		if a.Type == game.ActionStartTurn {
			r.ResetScope(ScopeTurn)
		}
		for _, w := range r.watchers {
			w.Watch(a)
		}
	}
}

// ResetScope resets every watcher of a scope.
func (r *Registry) ResetScope(scope Scope) {
	for _, w := range r.byScope[scope] {
		w.Reset()
	}
}

// Copy deep-copies the registry.
func (r *Registry) Copy() *Registry {
	c := NewRegistry()
	for _, key := range r.Keys() {
		c.Add(r.watchers[key].Copy())
	}
	return c
}

// PlayerStats is the per-seat tally reported for a match.
type PlayerStats struct {
	SpellsCast    int `json:"spellsCast"`
	Summoned      int `json:"summoned"`
	CreaturesLost int `json:"creaturesLost"`
	DamageTaken   int `json:"damageTaken"`
	Healed        int `json:"healed"`
}

// Stats summarises the stock watchers. Missing watchers leave zeros.
func (r *Registry) Stats() [2]PlayerStats {
	var out [2]PlayerStats
	for _, seat := range []game.PlayerID{game.PlayerA, game.PlayerB} {
		s := &out[seat]
		if w, ok := r.watchers["SpellsCastWatcher"].(*SpellsCastWatcher); ok {
			s.SpellsCast = w.Count(seat)
		}
		if w, ok := r.watchers["CreaturesDiedWatcher"].(*CreaturesDiedWatcher); ok {
			s.Summoned = w.Summoned(seat)
			s.CreaturesLost = w.Died(seat)
		}
		if w, ok := r.watchers["PlayerDamageWatcher"].(*PlayerDamageWatcher); ok {
			s.DamageTaken = w.DamageTaken(seat)
			s.Healed = w.Healed(seat)
		}
	}
	return out
}
