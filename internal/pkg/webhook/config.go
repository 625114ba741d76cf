package webhook

import (
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// Provider names shipped with the gateway.
const (
	ProviderBilling  = "billing"
	ProviderIdentity = "identity"
)

// RegistryFromEnv registers every shipped provider whose secret is set in
// WEBHOOK_<NAME>_SECRET. Providers without a secret are left out so their
// endpoint answers 404 instead of accepting unsigned bodies.
func RegistryFromEnv() (*Registry, error) {
	candidates := []Provider{
		{
			Name:            ProviderBilling,
			Scheme:          SchemeTimestamped,
			SignatureHeader: "Billing-Signature",
			Processor:       SubscriptionProcessor{},
		},
		{
			Name:            ProviderIdentity,
			Scheme:          SchemeHexHMAC,
			SignatureHeader: "X-Identity-Signature",
			Processor:       IdentityProcessor{},
		},
	}

	var providers []Provider
	for _, p := range candidates {
		p.Secret = strings.TrimSpace(env.GetEnv("WEBHOOK_"+strings.ToUpper(p.Name)+"_SECRET", ""))
		if p.Secret == "" {
			log.Warnf("[Webhook] %s: no secret configured, provider disabled", p.Name)
			continue
		}
		providers = append(providers, p)
	}
	return NewRegistry(providers...)
}
