// Package seed generates random CSV fixtures for the marketplace and loads
// them into a store through the repository interfaces.
package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

// PasswordHash is the bcrypt hash of "password", shared by every generated user.
const PasswordHash = "$2b$12$Q1PUFjhN/AWRQ21LbGYvjeLpZZB6lfZ1BPwifHALGO6oIbyC3CmJe"

// CSV file names inside a fixture directory
const (
	UsersFile    = "users.csv"
	ListingsFile = "listings.csv"
	MessagesFile = "messages.csv"
)

var (
	UsersHeader    = []string{"email", "username", "image_url", "password", "first_name", "last_name", "bio", "location"}
	ListingsHeader = []string{"title", "description", "photo", "price", "latitude", "longitude", "beds", "rooms", "bathrooms", "created_by"}
	MessagesHeader = []string{"body", "to_user", "from_user", "listing"}
)

var (
	minPrice = decimal.NewFromInt(150)
	maxPrice = decimal.NewFromInt(2000)
)

// maxRoomCount bounds beds, rooms and bathrooms (inclusive, starting at 1).
const maxRoomCount = 6

// UserRow is one line of users.csv.
type UserRow struct {
	Email     string
	Username  string
	ImageURL  string
	Password  string
	FirstName string
	LastName  string
	Bio       string
	Location  string
}

// ListingRow is one line of listings.csv.
type ListingRow struct {
	Title       string
	Description string
	Photo       string
	Price       decimal.Decimal
	Latitude    float64
	Longitude   float64
	Beds        int
	Rooms       int
	Bathrooms   int
	CreatedBy   string
}

// MessageRow is one line of messages.csv. Listing is the 1-based row of the
// listing in listings.csv.
type MessageRow struct {
	Body     string
	ToUser   string
	FromUser string
	Listing  int
}

// Fixtures is a complete generated data set.
type Fixtures struct {
	Users    []UserRow
	Listings []ListingRow
	Messages []MessageRow
}

// GenerateOptions controls how much data Generate produces.
type GenerateOptions struct {
	Users    int
	Listings int
	Messages int
	Seed     uint64
}

// DefaultGenerateOptions matches the size of the bundled demo data.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Users: 100, Listings: 50, Messages: 500, Seed: 1}
}

var (
	ErrNoUsersForListings  = errors.New("listings need at least one user")
	ErrNotEnoughForMessage = errors.New("messages need at least two users and one listing")
)

func (o GenerateOptions) validate() error {
	if o.Users < 0 || o.Listings < 0 || o.Messages < 0 {
		return errors.New("counts must not be negative")
	}
	if o.Listings > 0 && o.Users < 1 {
		return ErrNoUsersForListings
	}
	if o.Messages > 0 && (o.Users < 2 || o.Listings < 1) {
		return ErrNotEnoughForMessage
	}
	return nil
}

// Generate builds a deterministic data set for opts.Seed. Usernames and
// emails are unique and no message is addressed to its sender.
func Generate(opts GenerateOptions) (*Fixtures, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	g := &generator{rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)), taken: map[string]bool{}}
	f := &Fixtures{
		Users:    make([]UserRow, 0, opts.Users),
		Listings: make([]ListingRow, 0, opts.Listings),
		Messages: make([]MessageRow, 0, opts.Messages),
	}

	for i := 0; i < opts.Users; i++ {
		f.Users = append(f.Users, g.user())
	}
	for i := 0; i < opts.Listings; i++ {
		f.Listings = append(f.Listings, g.listing(f.Users))
	}
	for i := 0; i < opts.Messages; i++ {
		f.Messages = append(f.Messages, g.message(f.Users, f.Listings))
	}
	return f, nil
}

type generator struct {
	rng   *rand.Rand
	taken map[string]bool
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func (g *generator) user() UserRow {
	first := pick(g.rng, firstNames)
	last := pick(g.rng, lastNames)

	base := strings.ToLower(first + "." + last)
	username := base
	for n := 2; g.taken[username]; n++ {
		username = fmt.Sprintf("%s%d", base, n)
	}
	g.taken[username] = true

	return UserRow{
		Email:     username + "@" + pick(g.rng, emailDomains),
		Username:  username,
		ImageURL:  g.portraitURL(),
		Password:  PasswordHash,
		FirstName: first,
		LastName:  last,
		Bio:       g.sentence(),
		Location:  pick(g.rng, cities).name,
	}
}

func (g *generator) portraitURL() string {
	switch g.rng.IntN(21) {
	case 0:
		return fmt.Sprintf("https://randomuser.me/api/portraits/lego/%d.jpg", g.rng.IntN(10))
	default:
		kind := pick(g.rng, []string{"men", "women"})
		return fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", kind, g.rng.IntN(100))
	}
}

func (g *generator) listing(users []UserRow) ListingRow {
	city := pick(g.rng, cities)
	span := maxPrice.Sub(minPrice)
	price := minPrice.Add(span.Mul(decimal.NewFromFloat(g.rng.Float64()))).Round(2)

	return ListingRow{
		Title:       fmt.Sprintf("%s %s in %s", pick(g.rng, adjectives), pick(g.rng, homeKinds), city.name),
		Description: g.sentence() + " " + g.sentence(),
		Photo:       fmt.Sprintf("https://picsum.photos/seed/sharebnb-%d/1024/768", g.rng.IntN(1000)),
		Price:       price,
		Latitude:    roundCoord(city.lat + (g.rng.Float64()-0.5)/10),
		Longitude:   roundCoord(city.lng + (g.rng.Float64()-0.5)/10),
		Beds:        1 + g.rng.IntN(maxRoomCount),
		Rooms:       1 + g.rng.IntN(maxRoomCount),
		Bathrooms:   1 + g.rng.IntN(maxRoomCount),
		CreatedBy:   pick(g.rng, users).Username,
	}
}

// message writes an inquiry about a random listing, usually to its owner.
func (g *generator) message(users []UserRow, listings []ListingRow) MessageRow {
	idx := g.rng.IntN(len(listings))
	to := listings[idx].CreatedBy
	if g.rng.IntN(4) == 0 {
		to = pick(g.rng, users).Username
	}
	from := pick(g.rng, users).Username
	for from == to {
		from = pick(g.rng, users).Username
	}

	return MessageRow{
		Body:     g.sentence(),
		ToUser:   to,
		FromUser: from,
		Listing:  idx + 1,
	}
}

func (g *generator) sentence() string {
	words := make([]string, 4+g.rng.IntN(6))
	for i := range words {
		words[i] = pick(g.rng, loremWords)
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func roundCoord(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(6).Float64()
	return f
}

type city struct {
	name     string
	lat, lng float64
}

var cities = []city{
	{"San Francisco", 37.7749, -122.4194},
	{"Oakland", 37.8044, -122.2712},
	{"Los Angeles", 34.0522, -118.2437},
	{"Seattle", 47.6062, -122.3321},
	{"Portland", 45.5152, -122.6784},
	{"Denver", 39.7392, -104.9903},
	{"Austin", 30.2672, -97.7431},
	{"Chicago", 41.8781, -87.6298},
	{"New York", 40.7128, -74.0060},
	{"Boston", 42.3601, -71.0589},
	{"Miami", 25.7617, -80.1918},
	{"Honolulu", 21.3069, -157.8583},
}

var firstNames = []string{
	"Ana", "Ben", "Carla", "Dev", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jonah",
	"Kemi", "Liam", "Maya", "Nadia", "Omar", "Priya", "Quinn", "Rosa", "Sam", "Tariq",
	"Uma", "Victor", "Wen", "Ximena", "Yusuf", "Zoe",
}

var lastNames = []string{
	"Alvarez", "Brooks", "Chen", "Diaz", "Evans", "Fischer", "Garcia", "Huang", "Ibrahim",
	"Johnson", "Kim", "Lopez", "Morales", "Nguyen", "Okafor", "Patel", "Rossi", "Singh",
	"Tanaka", "Walker",
}

var emailDomains = []string{"example.com", "example.org", "example.net", "mail.test"}

var adjectives = []string{"Sunny", "Cozy", "Quiet", "Spacious", "Modern", "Rustic", "Bright", "Charming", "Hidden", "Breezy"}

var homeKinds = []string{"loft", "studio", "bungalow", "cottage", "flat", "townhouse", "cabin", "garden suite"}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit", "sed", "do",
	"eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore", "magna", "aliqua", "enim",
	"minim", "veniam", "quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi", "aliquip", "commodo",
}
