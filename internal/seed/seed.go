// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"interhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRooms    int
	NumCards    int
	ShouldClean bool
}

// SeedPassword is the shared plaintext password of every seeded account.
const SeedPassword = "Password123!"

var roomTopics = []string{
	"Computing", "Engineering", "Nursing", "Business", "Music Production",
	"Game Development", "Erasmus Students", "Chess Club", "Film Society",
	"Basketball", "Hiking", "Photography", "Debate Society", "Robotics",
}

var courses = []string{
	"BSc Computing", "BEng Electronic Engineering", "BSc Nursing",
	"BA Business Studies", "BSc Games Development", "BA Music Production",
}

// Run populates the database with a realistic mesh of users, rooms,
// memberships, pending access requests and content cards.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumRooms <= 0 {
		opts.NumRooms = 6
	}
	if opts.NumCards <= 0 {
		opts.NumCards = 40
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return err
		}
	}

	users, err := seedUsers(db, opts.NumUsers)
	if err != nil {
		return err
	}

	rooms, err := seedRooms(db, users, opts.NumRooms)
	if err != nil {
		return err
	}

	if err := seedMemberships(db, users, rooms); err != nil {
		return err
	}

	if err := seedCards(db, users, rooms, opts.NumCards); err != nil {
		return err
	}

	log.Printf("Seeded %d users, %d rooms, %d cards", len(users), len(rooms), opts.NumCards)
	return nil
}

// Clean removes all seeded data. Child tables first.
func Clean(db *gorm.DB) error {
	for _, table := range []string{"content_cards", "room_memberships", "rooms", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}
	return nil
}

func seedUsers(db *gorm.DB, n int) ([]models.User, error) {
	// One hash for all seeded accounts keeps seeding fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		if len(username) > 28 {
			username = username[:28]
		}
		user := models.User{
			Username:    username,
			Email:       fmt.Sprintf("%s@dkit.ie", username),
			Password:    string(hash),
			Name:        gofakeit.Name(),
			Country:     gofakeit.Country(),
			Course:      courses[rand.Intn(len(courses))],
			PhoneNumber: gofakeit.Phone(),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func seedRooms(db *gorm.DB, users []models.User, n int) ([]models.Room, error) {
	if n > len(roomTopics) {
		n = len(roomTopics)
	}

	rooms := make([]models.Room, 0, n)
	for i := 0; i < n; i++ {
		creator := users[rand.Intn(len(users))]
		roomType := models.RoomTypePublic
		if i%2 == 1 {
			roomType = models.RoomTypePrivate
		}
		room := models.Room{
			CreatorID:   creator.ID,
			Name:        roomTopics[i],
			Description: gofakeit.Sentence(8),
			Type:        roomType,
		}
		if err := db.Create(&room).Error; err != nil {
			return nil, fmt.Errorf("seed room %s: %w", room.Name, err)
		}
		membership := models.RoomMembership{
			RoomID: room.ID,
			UserID: creator.ID,
			Status: models.RoomMembershipMember,
		}
		if err := db.Create(&membership).Error; err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func seedMemberships(db *gorm.DB, users []models.User, rooms []models.Room) error {
	for _, room := range rooms {
		if room.Type != models.RoomTypePrivate {
			continue
		}
		for _, user := range users {
			if user.ID == room.CreatorID || rand.Intn(3) != 0 {
				continue
			}
			status := models.RoomMembershipMember
			if rand.Intn(2) == 0 {
				status = models.RoomMembershipRequested
			}
			membership := models.RoomMembership{RoomID: room.ID, UserID: user.ID, Status: status}
			if err := db.Create(&membership).Error; err != nil {
				return fmt.Errorf("seed membership: %w", err)
			}
		}
	}
	return nil
}

func seedCards(db *gorm.DB, users []models.User, rooms []models.Room, n int) error {
	now := time.Now()
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		card := models.ContentCard{
			CreatorID:       author.ID,
			CreatorUsername: author.Username,
			Title:           gofakeit.Sentence(4),
			Content:         gofakeit.Paragraph(1, 3, 12, " "),
			Timestamp:       now.Add(-time.Duration(rand.Intn(720)) * time.Hour).Unix(),
		}
		// Roughly a third of the cards land inside a room.
		if len(rooms) > 0 && rand.Intn(3) == 0 {
			roomID := rooms[rand.Intn(len(rooms))].ID
			card.RoomID = &roomID
		}
		if err := db.Create(&card).Error; err != nil {
			return fmt.Errorf("seed card: %w", err)
		}
	}
	return nil
}
