package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"pulso/internal/store"

	"github.com/9ssi7/exponent"
)

// SendFriendRequestToUser - notify the receiver that someone wants to be friends
func SendFriendRequestToUser(ctx context.Context, push PushSender, st *store.Storage, receiverID int64, requesterName string) error {
	tokensMap, err := st.PushTokens.GetTokensByUserIDs(ctx, []int64{receiverID})
	if err != nil {
		return err
	}
	tokens := dedupe(tokensMap[receiverID])
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	title := "Novo pedido de amizade"
	body := fmt.Sprintf("%s quer sair com você", requesterName)
	for _, t := range tokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":   "friend_request",
				"screen": "friends/requests",
			},
		}
		msgs = append(msgs, msg)
	}
	_, err = push.Publish(ctx, msgs)
	return err
}

// SendFriendAcceptedToUser - notify the original requester that the request was accepted
func SendFriendAcceptedToUser(ctx context.Context, push PushSender, st *store.Storage, requesterID int64, accepterName string) error {
	tokensMap, err := st.PushTokens.GetTokensByUserIDs(ctx, []int64{requesterID})
	if err != nil {
		return err
	}
	tokens := dedupe(tokensMap[requesterID])
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	title := "Pedido aceito"
	body := fmt.Sprintf("%s aceitou seu pedido de amizade", accepterName)
	for _, t := range tokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":   "friend_accepted",
				"screen": "friends",
			},
		}
		msgs = append(msgs, msg)
	}
	_, err = push.Publish(ctx, msgs)
	return err
}

// SendCheckInToFriends - tell every accepted friend where the user just checked in
func SendCheckInToFriends(ctx context.Context, push PushSender, st *store.Storage, userID int64, username, venueID, venueName string) error {
	edges, err := st.Friendships.ListForUser(ctx, userID, store.FriendshipAccepted)
	if err != nil {
		return fmt.Errorf("error listing friends: %w", err)
	}
	if len(edges) == 0 {
		return nil
	}

	friendIDs := make([]int64, 0, len(edges))
	for _, e := range edges {
		friendIDs = append(friendIDs, e.Other(userID))
	}

	tokensMap, err := st.PushTokens.GetTokensByUserIDs(ctx, friendIDs)
	if err != nil {
		return fmt.Errorf("error getting friend tokens: %w", err)
	}

	allTokens := make([]string, 0)
	for _, tokens := range tokensMap {
		allTokens = append(allTokens, tokens...)
	}
	compactTokens := dedupe(allTokens)
	if len(compactTokens) == 0 {
		return errors.New("no push tokens found for any friends")
	}

	msgs := make([]*exponent.Message, 0, len(compactTokens))
	title := fmt.Sprintf("%s está em %s", username, venueName)
	body := "Toque para ver como está o movimento agora"
	screen := "venues/" + venueID
	for _, t := range compactTokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":     "friend_checkin",
				"venue_id": venueID,
				"user_id":  strconv.FormatInt(userID, 10),
				"screen":   screen,
			},
		}
		msgs = append(msgs, msg)
	}

	_, err = push.Publish(ctx, msgs)
	if err != nil {
		return fmt.Errorf("error sending check-in notifications: %w", err)
	}
	return nil
}
