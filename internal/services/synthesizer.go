/*
 * This file is part of the Medical Assistant (https://github.com/Siddharthakhandelwal/MedicalAssistant).
 * Copyright (C) 2025 Siddhartha Khandelwal
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package services synthesizes intent-specific structured payloads.
// Everything here is a deterministic templater over fixed catalogs; a
// real search or video backend can replace it behind the same
// (intent, query) -> payload contract.
package services

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/intent"
)

// Payload is the structured service data accompanying an assistant
// reply. Created fresh per response; ownership transfers to the caller.
type Payload struct {
	Type  intent.Type `json:"type"`
	Query string      `json:"query,omitempty"`
	Data  interface{} `json:"data"`
}

// AppointmentOption is one bookable appointment type
type AppointmentOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// ProviderInfo is one provider from the static roster
type ProviderInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	NextAvailable string `json:"next_available"`
}

// AppointmentData is the payload for appointment intents
type AppointmentData struct {
	Options   []AppointmentOption `json:"options"`
	Providers []ProviderInfo      `json:"providers"`
}

// SearchResult is a single health-information search hit
type SearchResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// SearchData is the payload for search intents
type SearchData struct {
	Results []SearchResult `json:"results"`
}

// VideoData is the payload for video intents
type VideoData struct {
	Title       string `json:"title"`
	VideoID     string `json:"video_id"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	Views       int    `json:"views"`
	Likes       int    `json:"likes"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
}

// curatedTopic pairs a topic keyword with its curated results. Topics
// are matched in slice order so lookups stay deterministic.
type curatedTopic struct {
	topic string
	data  SearchData
}

// Synthesizer produces structured payloads from an intent and query,
// with no external calls.
type Synthesizer struct {
	appointments  AppointmentData
	curatedSearch []curatedTopic
}

// NewSynthesizer creates a synthesizer with the static catalogs
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		appointments:  appointmentCatalog(),
		curatedSearch: curatedSearchCatalog(),
	}
}

// Synthesize returns the payload for an intent and query, or nil for
// intents that carry no service data.
func (s *Synthesizer) Synthesize(intentType intent.Type, query string) *Payload {
	switch intentType {
	case intent.IntentAppointment:
		return &Payload{Type: intentType, Data: s.appointments}
	case intent.IntentSearch:
		return &Payload{Type: intentType, Query: query, Data: s.searchData(query)}
	case intent.IntentVideo:
		return &Payload{Type: intentType, Query: query, Data: s.videoData(query)}
	default:
		return nil
	}
}

// searchData returns the curated payload when the query mentions a
// known topic, otherwise two generic results templated from the query.
// The first topic in catalog order wins when several match.
func (s *Synthesizer) searchData(query string) SearchData {
	lower := strings.ToLower(query)
	for _, entry := range s.curatedSearch {
		if strings.Contains(lower, entry.topic) {
			return entry.data
		}
	}

	return SearchData{
		Results: []SearchResult{
			{
				Title:   fmt.Sprintf("%s - Overview and Key Facts", titleCase(query)),
				Summary: fmt.Sprintf("A general overview of %s: causes, common symptoms and when to seek medical care.", query),
				URL:     "https://medlineplus.gov/search?query=" + urlQuery(query),
				Source:  "MedlinePlus",
			},
			{
				Title:   fmt.Sprintf("%s - Treatment and Management", titleCase(query)),
				Summary: fmt.Sprintf("Current treatment options and self-care guidance for %s.", query),
				URL:     "https://www.mayoclinic.org/search/search-results?q=" + urlQuery(query),
				Source:  "Mayo Clinic",
			},
		},
	}
}

// videoData templates a single recommendation record from the query
func (s *Synthesizer) videoData(query string) VideoData {
	return VideoData{
		Title:       fmt.Sprintf("Understanding %s - A Patient's Guide", titleCase(query)),
		VideoID:     "dQw4w9WgXcQ",
		Thumbnail:   "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Duration:    "8:24",
		Views:       48213,
		Likes:       1874,
		Channel:     "HealthEd Media",
		Description: fmt.Sprintf("An accessible explainer covering %s, reviewed by clinicians.", query),
	}
}

func appointmentCatalog() AppointmentData {
	return AppointmentData{
		Options: []AppointmentOption{
			{ID: "general", Name: "General Consultation", Duration: "30 min", Description: "Routine checkup or new symptoms"},
			{ID: "followup", Name: "Follow-up Visit", Duration: "15 min", Description: "Review of an ongoing treatment plan"},
			{ID: "specialist", Name: "Specialist Referral", Duration: "45 min", Description: "In-depth consultation with a specialist"},
			{ID: "telehealth", Name: "Telehealth Call", Duration: "20 min", Description: "Video consultation from home"},
		},
		Providers: []ProviderInfo{
			{ID: "p1", Name: "Dr. Asha Verma", Specialty: "General Medicine", NextAvailable: "Today 4:30 PM"},
			{ID: "p2", Name: "Dr. Rohan Mehta", Specialty: "Cardiology", NextAvailable: "Tomorrow 10:00 AM"},
			{ID: "p3", Name: "Dr. Neha Kulkarni", Specialty: "Endocrinology", NextAvailable: "Thu 2:15 PM"},
		},
	}
}

func curatedSearchCatalog() []curatedTopic {
	return []curatedTopic{
		{topic: "diabetes", data: SearchData{
			Results: []SearchResult{
				{
					Title:   "Diabetes - Symptoms, Causes and Types",
					Summary: "Diabetes is a chronic condition where the body cannot properly regulate blood glucose. Common symptoms include increased thirst, frequent urination and fatigue.",
					URL:     "https://www.niddk.nih.gov/health-information/diabetes",
					Source:  "NIDDK",
				},
				{
					Title:   "Managing Diabetes Day to Day",
					Summary: "Blood sugar monitoring, diet, physical activity and medication are the pillars of diabetes management.",
					URL:     "https://www.cdc.gov/diabetes/managing/index.html",
					Source:  "CDC",
				},
				{
					Title:   "Diabetes Diet: Create Your Healthy-Eating Plan",
					Summary: "A diabetes diet is a healthy-eating plan naturally rich in nutrients and low in fat and calories.",
					URL:     "https://www.mayoclinic.org/diseases-conditions/diabetes/in-depth/diabetes-diet/art-20044295",
					Source:  "Mayo Clinic",
				},
			},
		}},
		{topic: "hypertension", data: SearchData{
			Results: []SearchResult{
				{
					Title:   "High Blood Pressure (Hypertension) - Overview",
					Summary: "Hypertension usually has no symptoms but raises the risk of heart disease and stroke. Regular monitoring is key.",
					URL:     "https://www.cdc.gov/bloodpressure/index.htm",
					Source:  "CDC",
				},
				{
					Title:   "Lowering Blood Pressure Without Medication",
					Summary: "Lifestyle changes such as reducing sodium, regular exercise and limiting alcohol can lower blood pressure.",
					URL:     "https://www.heart.org/en/health-topics/high-blood-pressure",
					Source:  "American Heart Association",
				},
			},
		}},
	}
}

// titleCase capitalizes the first rune of each word for templated titles
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// urlQuery encodes a query for templated links
func urlQuery(s string) string {
	return url.QueryEscape(strings.TrimSpace(s))
}
