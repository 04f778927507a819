package tlsutil

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	if err := GenerateSelfSignedCert([]string{"localhost", "127.0.0.1"}, dir); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, name := range []string{"ca.pem", "ca-key.pem", "server.pem", "server-key.pem", "client.pem", "client-key.pem"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "server.pem"))
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		t.Fatal("server.pem is not PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse server cert: %v", err)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("unexpected DNS names %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 {
		t.Errorf("expected one IP SAN, got %v", cert.IPAddresses)
	}

	server := ServerFiles{
		CertFile:     filepath.Join(dir, "server.pem"),
		KeyFile:      filepath.Join(dir, "server-key.pem"),
		ClientCAFile: filepath.Join(dir, "ca.pem"),
	}
	if _, err := ServerTLSConfig(server); err != nil {
		t.Errorf("server config: %v", err)
	}
	client := ClientFiles{
		CAFile:   filepath.Join(dir, "ca.pem"),
		CertFile: filepath.Join(dir, "client.pem"),
		KeyFile:  filepath.Join(dir, "client-key.pem"),
	}
	if _, err := ClientTLSConfig(client); err != nil {
		t.Errorf("client config: %v", err)
	}
}

func TestClientTLSConfig_BadCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		client ClientFiles
	}{
		{name: "unparsable CA", client: ClientFiles{CAFile: path}},
		{name: "missing CA file", client: ClientFiles{CAFile: filepath.Join(t.TempDir(), "missing.pem")}},
		{name: "cert without key", client: ClientFiles{CertFile: path}},
		{name: "unloadable key pair", client: ClientFiles{CertFile: path, KeyFile: path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ClientTLSConfig(tt.client); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestServerTLSConfig_BadClientCA(t *testing.T) {
	dir := t.TempDir()
	if err := GenerateSelfSignedCert([]string{"localhost"}, dir); err != nil {
		t.Fatal(err)
	}
	_, err := ServerTLSConfig(ServerFiles{
		CertFile:     filepath.Join(dir, "server.pem"),
		KeyFile:      filepath.Join(dir, "server-key.pem"),
		ClientCAFile: filepath.Join(dir, "server-key.pem"),
	})
	if err == nil {
		t.Fatal("expected error for a client CA file without certificates")
	}
}
