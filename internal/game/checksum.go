package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"

	"golang.org/x/crypto/blake2b"
)

// Checksum returns a digest of the game state that is independent of map
// iteration order. Two games that went through the same commands from the
// same decks share a checksum.
func (g *Game) Checksum() string {
	sum := blake2b.Sum256(g.canonical())
	return hex.EncodeToString(sum[:])
}

// canonical writes the deterministic representation the checksum hashes.
// The game id is left out so replays of the same match agree.
func (g *Game) canonical() []byte {
	var buf bytes.Buffer

	winner := -1
	if w, ok := g.Winner(); ok {
		winner = w
	}
	fmt.Fprintf(&buf, "GAME:%d|%d|%d|%t\n", g.Turn, g.CurrentPlayer, winner, g.VsAI)

	for _, id := range []PlayerID{g.PlayerA, g.PlayerB} {
		p := g.players[id]
		fmt.Fprintf(&buf, "PLAYER:%d|%d|%d|%d|%d|%s\n",
			id, p.HP, p.Mana, p.BaseMana, p.MoveCount, p.Archetype)
	}

	for _, c := range g.Entities() {
		fmt.Fprintf(&buf, "CARD:%d|%d|%d|%s|%s|%d\n",
			c.ID, c.TemplateID, c.Owner, c.Kind, c.Location, c.Cost)
		if m := c.Monster; m != nil {
			keywords := slices.Clone(m.Keywords)
			slices.Sort(keywords)
			fmt.Fprintf(&buf, "  MONSTER:%d|%d|%d|%t|%d|%v\n",
				m.Attack, m.HP, m.MaxHP, m.Asleep, m.AttackCount, keywords)
		}
	}

	// Queue order is significant.
	buf.WriteString("QUEUE:\n")
	for i, eff := range g.queue.List() {
		fmt.Fprintf(&buf, "  %d:%s\n", i, eff.Kind())
	}
	return buf.Bytes()
}
