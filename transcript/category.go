// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import "strings"

// Product categories certifications are bucketed into for the summary view.
const (
	CategoryCloud      = "cloud"
	CategorySecurity   = "security"
	CategoryNetworking = "networking"
	CategoryAnalytics  = "analytics"
	CategoryGeneral    = "general"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryCloud, []string{"cloud", "saas"}},
	{CategorySecurity, []string{"security", "secure", "threat", "firewall"}},
	{CategoryNetworking, []string{"network", "sd-wan", "routing", "switching"}},
	{CategoryAnalytics, []string{"analytics", "insight", "reporting"}},
}

// Categorize buckets a course by product keywords in its name. Courses that
// match nothing land in the general bucket.
func Categorize(courseName string) string {
	lower := strings.ToLower(courseName)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return CategoryGeneral
}
