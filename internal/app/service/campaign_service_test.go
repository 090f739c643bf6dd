package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amezhanin/affilibot/internal/app/models"
)

func TestCampaignServiceImpl_TrackingLink(t *testing.T) {
	tests := []struct {
		name       string
		link       string
		telegramID int64
		want       string
	}{
		{
			name:       "Link Without Query",
			link:       "https://tracker.example.com/offer",
			telegramID: 123,
			want:       "https://tracker.example.com/offer?p1=123",
		},
		{
			name:       "Link With Existing Query",
			link:       "https://tracker.example.com/click?offer=vpn",
			telegramID: 456,
			want:       "https://tracker.example.com/click?offer=vpn&p1=456",
		},
		{
			name:       "Existing Identity Replaced",
			link:       "https://tracker.example.com/click?p1=previous",
			telegramID: 789,
			want:       "https://tracker.example.com/click?p1=789",
		},
	}

	service := NewCampaignService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := &models.Campaign{Name: "offer", Link: tt.link}
			assert.Equal(t, tt.want, service.TrackingLink(campaign, tt.telegramID))
		})
	}
}
