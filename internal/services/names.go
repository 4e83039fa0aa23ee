package services

import (
	"fmt"
	"math/rand/v2"
)

var (
	nameColors = []string{
		"amber", "aqua", "azure", "beige", "black", "blue", "bronze", "brown",
		"coral", "crimson", "cyan", "gold", "gray", "green", "indigo", "ivory",
		"jade", "lavender", "lime", "magenta", "maroon", "navy", "olive", "orange",
		"pink", "plum", "purple", "red", "rose", "ruby", "salmon", "scarlet",
		"silver", "tan", "teal", "turquoise", "violet", "white", "yellow",
	}
	nameAnimals = []string{
		"albatross", "alpaca", "badger", "bat", "bear", "beaver", "bison", "camel",
		"cat", "cheetah", "crab", "crane", "crow", "deer", "dolphin", "duck",
		"eagle", "elephant", "falcon", "ferret", "fox", "frog", "gazelle", "gecko",
		"giraffe", "goat", "gorilla", "hamster", "hawk", "hedgehog", "heron", "horse",
		"jaguar", "kangaroo", "koala", "lemur", "leopard", "lion", "llama", "lobster",
		"lynx", "marten", "mole", "moose", "mouse", "octopus", "otter", "owl",
		"panda", "panther", "parrot", "penguin", "pigeon", "puffin", "rabbit", "raccoon",
		"raven", "seal", "shark", "sheep", "sloth", "snail", "sparrow", "squid",
		"swan", "tiger", "toucan", "turtle", "walrus", "whale", "wolf", "yak", "zebra",
	}
)

// anonymousName produces names like "teal-otter417" for social accounts whose
// provider withheld a display name.
func anonymousName() string {
	return fmt.Sprintf("%s-%s%d",
		nameColors[rand.IntN(len(nameColors))],
		nameAnimals[rand.IntN(len(nameAnimals))],
		100+rand.IntN(900),
	)
}
