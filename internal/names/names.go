// Package names hands out throwaway display names.
package names

import "math/rand/v2"

var adjectives = []string{
	"Brave", "Calm", "Clever", "Daring", "Eager", "Fuzzy", "Gentle", "Happy",
	"Jolly", "Keen", "Lucky", "Mighty", "Nimble", "Proud", "Quick", "Quiet",
	"Rapid", "Silly", "Sly", "Swift", "Tidy", "Witty", "Zany", "Bold",
}

var animals = []string{
	"Otter", "Badger", "Falcon", "Fox", "Heron", "Koala", "Lynx", "Moose",
	"Newt", "Owl", "Panda", "Puffin", "Raven", "Seal", "Sloth", "Tiger",
	"Walrus", "Wombat", "Yak", "Zebra", "Gecko", "Bison", "Crane", "Lemur",
}

// Random returns an "Adjective Animal" name.
func Random() string {
	return adjectives[rand.IntN(len(adjectives))] + " " + animals[rand.IntN(len(animals))]
}
