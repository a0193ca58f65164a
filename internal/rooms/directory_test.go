package rooms

import (
	"context"
	"testing"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Partner_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	a, b := uuid.New(), uuid.New()
	participants := []models.Participant{
		{UserID: a},
		{UserID: b},
	}

	partnerOfA, err := Partner(participants, a)
	req.NoError(err)
	req.Equal(b, partnerOfA)

	partnerOfB, err := Partner(participants, b)
	req.NoError(err)
	req.Equal(a, partnerOfB)
}

func Test_Partner_Fails_On_Single_Participant_Room(t *testing.T) {
	req := require.New(t)
	a := uuid.New()
	participants := []models.Participant{{UserID: a}}

	_, err := Partner(participants, a)
	req.ErrorIs(err, ErrPartnerNotFound)
}

func Test_Partner_Fails_On_Empty_Room(t *testing.T) {
	req := require.New(t)

	_, err := Partner(nil, uuid.New())
	req.ErrorIs(err, ErrPartnerNotFound)
}

func Test_Partner_Fails_On_Too_Many_Participants(t *testing.T) {
	req := require.New(t)
	a := uuid.New()
	participants := []models.Participant{
		{UserID: a},
		{UserID: uuid.New()},
		{UserID: uuid.New()},
	}

	_, err := Partner(participants, a)
	req.ErrorIs(err, ErrPartnerNotFound)
}

type fakeDirectoryStore struct {
	participants []models.Participant
	users        map[uuid.UUID]*models.User
}

func (s *fakeDirectoryStore) RoomParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	return s.participants, nil
}

func (s *fakeDirectoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users[id], nil
}

func Test_PartnerProfile_Resolves_Other_User(t *testing.T) {
	req := require.New(t)
	a, b := uuid.New(), uuid.New()
	store := &fakeDirectoryStore{
		participants: []models.Participant{{UserID: a}, {UserID: b}},
		users: map[uuid.UUID]*models.User{
			b: {ID: b, Username: "yuki", AvatarURL: "https://example.com/yuki.png"},
		},
	}
	directory := NewDirectory(store)

	partner, err := directory.PartnerProfile(context.Background(), uuid.New(), a)
	req.NoError(err)
	req.Equal("yuki", partner.Username)
}
