// Package prodpal implements ProductivityPal, a Discord bot that posts
// periodic productivity reminders, runs randomly scheduled status
// check-ins with AI-generated manager feedback, and tracks daily job
// applications. It also serves an HTTP health/status endpoint and can
// keep itself warm on free hosting tiers via a self-ping.
package prodpal
