package challenge

import "math/rand"

// subTopics seeds the generation prompt. A shuffled sample goes into every
// batch so consecutive days don't converge on the same themes.
var subTopics = []string{
	"world capitals", "rivers and lakes", "mountain ranges", "deserts",
	"flags of the world", "island nations", "ancient Egypt", "ancient Rome",
	"the Middle Ages", "world wars", "famous explorers", "inventions",
	"the space race", "famous scientists", "Nobel laureates", "human anatomy",
	"animal kingdom", "marine life", "birds", "insects", "the solar system",
	"constellations", "chemistry basics", "physics basics", "mathematics",
	"classic literature", "poetry", "Shakespeare", "children's books",
	"Greek mythology", "Norse mythology", "world religions", "philosophy",
	"classical music", "opera", "rock and pop", "jazz", "musical instruments",
	"famous paintings", "sculpture", "architecture", "photography",
	"cinema classics", "animated films", "television series", "video games",
	"board games", "olympic history", "football", "basketball", "tennis",
	"athletics", "chess", "world cuisine", "desserts", "beverages",
	"wine and vineyards", "famous chefs", "fashion history", "currencies",
	"world economies", "famous companies", "aviation", "railways", "ships",
	"automobiles", "bridges and tunnels", "skyscrapers", "national parks",
	"UNESCO heritage sites", "languages of the world", "alphabets",
	"proverbs and idioms", "units of measurement", "calendars and time",
}

// sampleTopics returns n distinct topics in random order.
func sampleTopics(n int) []string {
	shuffled := make([]string, len(subTopics))
	copy(shuffled, subTopics)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
