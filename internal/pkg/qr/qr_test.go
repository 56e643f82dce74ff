package qr

import (
	"bytes"
	"testing"
)

func TestGeneratePNG(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		size    int
		wantErr bool
	}{
		{name: "Default Size", url: "https://opssight.example/signup?invite=inv_abc", size: 0, wantErr: false},
		{name: "Explicit Size", url: "https://opssight.example/signup?invite=inv_abc", size: 512, wantErr: false},
		{name: "Size Too Small", url: "https://opssight.example", size: 64, wantErr: true},
		{name: "Size Too Large", url: "https://opssight.example", size: 4096, wantErr: true},
	}

	pngMagic := []byte{0x89, 'P', 'N', 'G'}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeneratePNG(tt.url, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("GeneratePNG() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !bytes.HasPrefix(got, pngMagic) {
				t.Error("GeneratePNG() did not return a PNG")
			}
		})
	}
}
