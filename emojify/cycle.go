package emojify

// Emoji is the fixed, ordered set handed out by a Cycle.
var Emoji = [4]string{
	"\U0001F600", // grinning face
	"\U0001F642", // slightly smiling face
	"\U0001F61D", // squinting face with tongue
	"\U0001F92B", // shushing face
}

// Cycle hands out Emoji round-robin. The zero value is ready to use and
// starts at Emoji[0]. A Cycle belongs to a single request and is not safe
// for concurrent use.
type Cycle struct {
	pos int
}

// NewCycle returns a Cycle positioned at the first emoji.
func NewCycle() *Cycle {
	return &Cycle{}
}

// Next returns the next emoji and advances the cycle.
func (c *Cycle) Next() string {
	e := Emoji[c.pos%len(Emoji)]
	c.pos++
	return e
}

// Count reports how many emoji have been handed out so far.
func (c *Cycle) Count() int {
	return c.pos
}
