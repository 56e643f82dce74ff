package sso

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"

	"github.com/crewjam/saml"
	"github.com/crewjam/saml/samlsp"

	"opssight/internal/platform/config"
)

// ServiceProvider wraps the SAML SP used for SSO login. The IdP asserts an
// email address; the auth handler maps it to a local user.
type ServiceProvider struct {
	sp saml.ServiceProvider
}

func NewServiceProvider(ctx context.Context, cfg config.SAMLConfig) (*ServiceProvider, error) {
	keyPair, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load SP keypair: %w", err)
	}
	keyPair.Leaf, err = x509.ParseCertificate(keyPair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse SP certificate: %w", err)
	}

	idpMetadataURL, err := url.Parse(cfg.IDPMetadataURL)
	if err != nil {
		return nil, fmt.Errorf("parse IdP metadata URL: %w", err)
	}
	idpMetadata, err := samlsp.FetchMetadata(ctx, http.DefaultClient, *idpMetadataURL)
	if err != nil {
		return nil, fmt.Errorf("fetch IdP metadata: %w", err)
	}

	acsURL, err := url.Parse(cfg.ACSURL)
	if err != nil {
		return nil, fmt.Errorf("parse ACS URL: %w", err)
	}
	metadataURL := *acsURL
	metadataURL.Path = "/api/v1/auth/saml/metadata"

	return &ServiceProvider{
		sp: saml.ServiceProvider{
			EntityID:          cfg.EntityID,
			Key:               keyPair.PrivateKey.(*rsa.PrivateKey),
			Certificate:       keyPair.Leaf,
			AcsURL:            *acsURL,
			MetadataURL:       metadataURL,
			IDPMetadata:       idpMetadata,
			AllowIDPInitiated: true,
		},
	}, nil
}

// Metadata returns the SP metadata document.
func (p *ServiceProvider) Metadata() *saml.EntityDescriptor {
	return p.sp.Metadata()
}

// LoginURL builds the redirect-binding AuthnRequest URL for the IdP.
func (p *ServiceProvider) LoginURL(relayState string) (string, error) {
	u, err := p.sp.MakeRedirectAuthenticationRequest(relayState)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// ParseAssertion validates an ACS POST and returns the asserted email.
func (p *ServiceProvider) ParseAssertion(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	assertion, err := p.sp.ParseResponse(r, nil)
	if err != nil {
		return "", fmt.Errorf("parse SAML response: %w", err)
	}
	if assertion.Subject == nil || assertion.Subject.NameID == nil || assertion.Subject.NameID.Value == "" {
		return "", fmt.Errorf("assertion carries no subject NameID")
	}
	return assertion.Subject.NameID.Value, nil
}
