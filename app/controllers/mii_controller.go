package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/sujit-baniya/flash"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/miistore"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

// A user keeps at most ten Mii slots, matching the console's Mii channel.
const maxMiiSlots = 10

var miiMirror *miistore.Mirror

// InitializeMiiController sets up the optional S3 mirror for Mii payloads.
func InitializeMiiController() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "miistore").Logger()
	mirror, err := miistore.NewMirror(context.Background(), miistore.NewConfigFromEnv(), log)
	if err != nil {
		log.Error().Err(err).Msg("Mii mirror unavailable, continuing without it")
		return
	}
	miiMirror = mirror
}

// HandleMiiList shows the user's stored Miis.
func HandleMiiList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	miis, err := repository.GetGlobalRepositories().Mii.ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("could not load Miis")
	}

	return renderPage(c, "user/miis", fiber.Map{
		"Title": "My Miis",
		"Miis":  miis,
		"Slots": maxMiiSlots,
	})
}

// HandleMiiUpload stores an uploaded Mii binary in the chosen slot.
func HandleMiiUpload(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	slot, err := strconv.Atoi(c.FormValue("slot", "0"))
	if err != nil || slot < 0 || slot >= maxMiiSlots {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid Mii slot"}).Redirect("/user/miis")
	}

	fileHeader, err := c.FormFile("mii")
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No Mii file uploaded"}).Redirect("/user/miis")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not read the uploaded file"}).Redirect("/user/miis")
	}
	defer f.Close()

	payload, err := io.ReadAll(io.LimitReader(f, miistore.PayloadSize+1))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not read the uploaded file"}).Redirect("/user/miis")
	}

	decoded, err := miistore.Decode(payload)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "That does not look like a Mii file"}).Redirect("/user/miis")
	}

	if err := repository.GetGlobalRepositories().Mii.Upsert(&models.Mii{
		UserID:        userCtx.UserID,
		Slot:          slot,
		Name:          decoded.Name,
		PayloadBase64: decoded.PayloadBase64,
		Checksum:      decoded.Checksum,
	}); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not save the Mii"}).Redirect("/user/miis")
	}

	if miiMirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = miiMirror.Put(ctx, userCtx.UserID, slot, payload)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": fmt.Sprintf("Mii %q saved to slot %d", decoded.Name, slot)}).Redirect("/user/miis")
}

// HandleMiiExport downloads the stored Mii as a raw .mii file.
func HandleMiiExport(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	mii, err := repository.GetGlobalRepositories().Mii.GetByUserAndSlot(userCtx.UserID, slot)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	payload, err := miistore.Encode(mii.PayloadBase64, mii.Checksum)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("stored Mii is corrupt")
	}

	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", mii.Name+".mii"))
	return c.Send(payload)
}

// HandleMiiDelete removes a Mii slot.
func HandleMiiDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid Mii slot"}).Redirect("/user/miis")
	}

	if err := repository.GetGlobalRepositories().Mii.Delete(userCtx.UserID, slot); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not delete the Mii"}).Redirect("/user/miis")
	}

	if miiMirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = miiMirror.Delete(ctx, userCtx.UserID, slot)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Mii deleted"}).Redirect("/user/miis")
}
