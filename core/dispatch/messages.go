package dispatch

import (
	"fmt"
	"time"

	"github.com/ngantchou/warap-ai-sub004/core/model"
)

// The core owns the exact wording of every message; the gateway only
// transports opaque text.

func providerNotification(req model.Request, window time.Duration) string {
	urgency := req.Urgency
	if urgency == "" {
		urgency = "dès que possible"
	}
	return fmt.Sprintf(
		"Nouvelle demande de service\n"+
			"Service : %s\n"+
			"Lieu : %s\n"+
			"Description : %s\n"+
			"Délai souhaité : %s\n\n"+
			"Répondez OUI pour accepter ou NON pour refuser. "+
			"Sans réponse sous %d minutes, la demande sera proposée à un autre prestataire.",
		req.ServiceType, req.Location, req.Description, urgency,
		int(window.Minutes()))
}

func clarificationPrompt() string {
	return "Nous n'avons pas compris votre réponse. Répondez OUI pour accepter la demande ou NON pour la refuser."
}

func requesterNoProviders(req model.Request) string {
	return fmt.Sprintf(
		"Aucun prestataire n'est disponible pour votre demande de %s pour le moment. "+
			"Nous relancerons la recherche et vous tiendrons informé.",
		req.ServiceType)
}

func requesterMatched(req model.Request, p model.Provider) string {
	return fmt.Sprintf(
		"Bonne nouvelle ! %s a accepté votre demande de %s et va vous contacter rapidement.",
		p.Name, req.ServiceType)
}

func requesterDelay(req model.Request) string {
	return fmt.Sprintf(
		"La recherche d'un prestataire pour votre demande de %s prend plus de temps que prévu. "+
			"Nous poursuivons nos efforts et revenons vers vous dès que possible.",
		req.ServiceType)
}
