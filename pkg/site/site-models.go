package site

// Writer is the blog's author, whose profile heads the home page.
type Writer struct {
	Id        int64
	Name      string
	Bio       string
	Email     string
	Social    string
	AvatarURL string
}

// HomeHits is the counter incremented by every home page view.
const HomeHits = "home_hits"

var defaultWriter = Writer{
	Name: "डॉ. मनस्विनी श्रीवास्तव",
	Bio:  "यहाँ लेखिका के बारे में जानकारी जोड़ें। उनकी प्रेरणा, यात्रा और साहित्यिक योगदान का संक्षेप।",
}
