package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// WriteDir writes users.csv, listings.csv and messages.csv into dir,
// creating it if needed.
func (f *Fixtures) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	users := make([][]string, len(f.Users))
	for i, u := range f.Users {
		users[i] = []string{u.Email, u.Username, u.ImageURL, u.Password, u.FirstName, u.LastName, u.Bio, u.Location}
	}
	listings := make([][]string, len(f.Listings))
	for i, l := range f.Listings {
		listings[i] = []string{
			l.Title, l.Description, l.Photo, l.Price.StringFixed(2),
			formatFloat(l.Latitude), formatFloat(l.Longitude),
			strconv.Itoa(l.Beds), strconv.Itoa(l.Rooms), strconv.Itoa(l.Bathrooms),
			l.CreatedBy,
		}
	}
	messages := make([][]string, len(f.Messages))
	for i, m := range f.Messages {
		messages[i] = []string{m.Body, m.ToUser, m.FromUser, strconv.Itoa(m.Listing)}
	}

	for _, out := range []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{UsersFile, UsersHeader, users},
		{ListingsFile, ListingsHeader, listings},
		{MessagesFile, MessagesHeader, messages},
	} {
		if err := writeCSV(filepath.Join(dir, out.name), out.header, out.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadDir parses the three fixture files written by WriteDir. A missing
// messages.csv is treated as empty.
func ReadDir(dir string) (*Fixtures, error) {
	f := &Fixtures{}

	userRows, err := readCSV(filepath.Join(dir, UsersFile), UsersHeader, false)
	if err != nil {
		return nil, err
	}
	for _, r := range userRows {
		f.Users = append(f.Users, UserRow{
			Email: r[0], Username: r[1], ImageURL: r[2], Password: r[3],
			FirstName: r[4], LastName: r[5], Bio: r[6], Location: r[7],
		})
	}

	listingRows, err := readCSV(filepath.Join(dir, ListingsFile), ListingsHeader, false)
	if err != nil {
		return nil, err
	}
	for i, r := range listingRows {
		row, err := parseListingRow(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ListingsFile, i+1, err)
		}
		f.Listings = append(f.Listings, row)
	}

	messageRows, err := readCSV(filepath.Join(dir, MessagesFile), MessagesHeader, true)
	if err != nil {
		return nil, err
	}
	for i, r := range messageRows {
		listing, err := strconv.Atoi(r[3])
		if err != nil || listing < 1 || listing > len(f.Listings) {
			return nil, fmt.Errorf("%s row %d: listing %q is not a row of %s", MessagesFile, i+1, r[3], ListingsFile)
		}
		f.Messages = append(f.Messages, MessageRow{Body: r[0], ToUser: r[1], FromUser: r[2], Listing: listing})
	}
	return f, nil
}

func readCSV(path string, header []string, optional bool) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("%s: unexpected header %v, want %v", path, got, header)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func parseListingRow(r []string) (ListingRow, error) {
	price, err := decimal.NewFromString(r[3])
	if err != nil {
		return ListingRow{}, fmt.Errorf("price: %w", err)
	}
	lat, err := strconv.ParseFloat(r[4], 64)
	if err != nil {
		return ListingRow{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(r[5], 64)
	if err != nil {
		return ListingRow{}, fmt.Errorf("longitude: %w", err)
	}
	counts := make([]int, 3)
	for i, name := range []string{"beds", "rooms", "bathrooms"} {
		if counts[i], err = strconv.Atoi(r[6+i]); err != nil {
			return ListingRow{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	return ListingRow{
		Title:       r[0],
		Description: r[1],
		Photo:       r[2],
		Price:       price,
		Latitude:    lat,
		Longitude:   lng,
		Beds:        counts[0],
		Rooms:       counts[1],
		Bathrooms:   counts[2],
		CreatedBy:   r[9],
	}, nil
}
