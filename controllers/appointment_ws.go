package controller

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

// wsUserID authenticates the socket's subscribe token and resolves team
// members to their studio owner's scope. The same account checks the HTTP
// auth middleware performs apply here: a revoked or deactivated token must
// not keep a live board feed.
func wsUserID(token string) (uint, bool) {
	claims, err := utils.ParseJWTToken(token)
	if err != nil {
		return 0, false
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return 0, false
	}
	if !user.IsActive || claims.TokenVersion != user.TokenVersion {
		return 0, false
	}

	return models.ResolveEffectiveUserID(config.DB, user.ID), true
}

// HandleScheduleBoardWS streams today's appointment board to the front desk.
// The client sends one subscribe frame, then receives a fresh snapshot every
// few seconds until it disconnects.
func HandleScheduleBoardWS(c *websocket.Conn) {
	defer c.Close()

	var input struct {
		Token  string `json:"token"`
		Action string `json:"action"`
	}

	if err := c.ReadJSON(&input); err != nil {
		log.Printf("Error reading JSON: %v", err)
		return
	}
	if input.Action != "subscribe" {
		return
	}

	userID, ok := wsUserID(input.Token)
	if !ok {
		c.WriteJSON(map[string]string{"error": "unauthorized"})
		return
	}

	for {
		dayStart := time.Now().Truncate(24 * time.Hour)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var appointments []models.Appointment
		err := config.DB.Preload("Client").
			Where("user_id = ? AND starts_at >= ? AND starts_at < ?", userID, dayStart, dayEnd).
			Order("starts_at ASC").
			Find(&appointments).Error
		if err != nil {
			log.Printf("Error loading schedule board: %v", err)
			return
		}

		snapshot := struct {
			Appointments []models.Appointment `json:"appointments"`
			SentAt       time.Time            `json:"sent_at"`
		}{
			Appointments: appointments,
			SentAt:       time.Now(),
		}

		if err := c.WriteJSON(snapshot); err != nil {
			// Normal path when the browser tab closes.
			return
		}

		time.Sleep(5 * time.Second)
	}
}
