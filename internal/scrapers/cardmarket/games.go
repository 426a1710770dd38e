package cardmarket

// Game is the path segment cardmarket uses for a trading card game, it
// selects which catalogue every URL points into.
type Game string

const DefaultGame Game = "Magic"

var supportedGames = []Option{
	{Value: "Magic", Label: "Magic: The Gathering"},
	{Value: "Pokemon", Label: "Pokémon"},
	{Value: "YuGiOh", Label: "Yu-Gi-Oh!"},
	{Value: "OnePiece", Label: "One Piece"},
	{Value: "Lorcana", Label: "Disney Lorcana"},
	{Value: "FleshAndBlood", Label: "Flesh and Blood"},
	{Value: "StarWarsUnlimited", Label: "Star Wars: Unlimited"},
	{Value: "Digimon", Label: "Digimon"},
	{Value: "DragonBallSuper", Label: "Dragon Ball Super"},
	{Value: "Vanguard", Label: "Cardfight!! Vanguard"},
	{Value: "WeissSchwarz", Label: "Weiß Schwarz"},
	{Value: "FinalFantasy", Label: "Final Fantasy TCG"},
	{Value: "ForceOfWill", Label: "Force of Will"},
}

// ParseGame resolves a game identifier, unknown identifiers resolve to
// DefaultGame with ok set to false.
func ParseGame(id string) (game Game, ok bool) {
	for _, g := range supportedGames {
		if g.Value == id {
			return Game(id), true
		}
	}
	return DefaultGame, false
}

// SupportedGames lists every game in display order.
func SupportedGames() []Option {
	out := make([]Option, len(supportedGames))
	copy(out, supportedGames)
	return out
}

func (g Game) DisplayName() string {
	return LabelOf(supportedGames, string(g))
}

// Option is one entry of a fixed vocabulary, Value is what goes on the wire
// and Label is what a person reads.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LabelOf returns the label of value within options, or value itself if it
// isn't part of the vocabulary.
func LabelOf(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// IsOption reports whether value belongs to options, the empty string is
// always accepted and means "no filter".
func IsOption(options []Option, value string) bool {
	if value == "" {
		return true
	}
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Languages are the values of the "language" query parameter on card pages.
var Languages = []Option{
	{Value: "1", Label: "English"},
	{Value: "2", Label: "French"},
	{Value: "3", Label: "German"},
	{Value: "4", Label: "Spanish"},
	{Value: "5", Label: "Italian"},
	{Value: "6", Label: "S-Chinese"},
	{Value: "7", Label: "Japanese"},
	{Value: "8", Label: "Portuguese"},
	{Value: "9", Label: "Russian"},
	{Value: "10", Label: "Korean"},
	{Value: "11", Label: "T-Chinese"},
}

// Conditions are the values of the "minCondition" query parameter, best first.
var Conditions = []Option{
	{Value: "MT", Label: "Mint"},
	{Value: "NM", Label: "Near Mint"},
	{Value: "EX", Label: "Excellent"},
	{Value: "GD", Label: "Good"},
	{Value: "LP", Label: "Light Played"},
	{Value: "PL", Label: "Played"},
	{Value: "PO", Label: "Poor"},
}

var FoilOptions = []Option{
	{Value: "Y", Label: "Foil"},
	{Value: "N", Label: "Non-Foil"},
}
