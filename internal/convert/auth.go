package convert

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/intakedesk/internal/model"
)

// Credentials is the payload of Register and Login.
type Credentials struct {
	Username    string
	Password    string
	DisplayName string // Register only
	Email       string // Register only
}

// ToProtoCredentials encodes credentials.
func ToProtoCredentials(c Credentials) *structpb.Struct {
	return stringMap(map[string]string{
		"username":    c.Username,
		"password":    c.Password,
		"displayName": c.DisplayName,
		"email":       c.Email,
	})
}

// FromProtoCredentials decodes credentials; absent keys are empty.
func FromProtoCredentials(s *structpb.Struct) (Credentials, error) {
	m, err := fromStringMap("credentials", s)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username:    m["username"],
		Password:    m["password"],
		DisplayName: m["displayName"],
		Email:       m["email"],
	}, nil
}

// ToProtoSession encodes the Login response.
func ToProtoSession(tok model.Tokens, u model.User) *structpb.Struct {
	s := stringMap(map[string]string{
		"accessToken": tok.AccessToken,
		"userId":      u.ID.String(),
		"displayName": u.DisplayName,
		"email":       u.Email,
	})
	if v := Time(tok.ExpiresAt); v != nil {
		s.Fields["expiresAt"] = v
	}
	return s
}

// FromProtoSession decodes the Login response.
func FromProtoSession(s *structpb.Struct) (model.Session, error) {
	if s == nil {
		return model.Session{}, fmt.Errorf("nil session")
	}
	exp, err := FromTime("expiresAt", s.GetFields()["expiresAt"])
	if err != nil {
		return model.Session{}, err
	}
	get := func(k string) string { return s.GetFields()[k].GetStringValue() }
	if get("accessToken") == "" {
		return model.Session{}, fmt.Errorf("session without access token")
	}
	return model.Session{
		Identity: model.Identity{
			UserID:      get("userId"),
			DisplayName: get("displayName"),
			Email:       get("email"),
		},
		AccessToken: get("accessToken"),
		ExpiresAt:   exp.In(time.Local),
	}, nil
}
