package mcp

import "github.com/mark3labs/mcp-go/mcp"

var matchesToolDef = mcp.NewTool("companion_matches",
	mcp.WithDescription("Suggest companions for a member, ranked by compatibility (0-100). "+
		"Considers shared circles, beneficial-content overlap, activity timing, engagement level, location, and interests. "+
		"Returns an empty list when the member is unknown or the store is unavailable."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Member to find companions for")),
	mcp.WithNumber("limit", mcp.Description("Maximum matches (default 10, max 100)")),
	mcp.WithNumber("min_score", mcp.Description("Minimum compatibility score 0-100 (default 30)")),
	mcp.WithBoolean("exclude_existing", mcp.Description("Skip members with a pending or accepted connection (default true)")),
)

var studyPartnersToolDef = mcp.NewTool("companion_study_partners",
	mcp.WithDescription("Suggest study partners: companion matches whose interests contain the topic (case-insensitive)."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Member to find partners for")),
	mcp.WithString("topic", mcp.Required(), mcp.Description("Study topic, e.g. \"fiqh\"")),
	mcp.WithNumber("limit", mcp.Description("Maximum matches (default 10, max 100)")),
)

var mentorsToolDef = mcp.NewTool("companion_mentors",
	mcp.WithDescription("Suggest mentor-eligible members. Mentors receive a +10 bonus and the reason \"Available as mentor\"."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Member looking for a mentor")),
	mcp.WithString("subject_area", mcp.Description("Optional subject filter over mentor interests")),
	mcp.WithNumber("limit", mcp.Description("Maximum matches (default 10, max 100)")),
)

var forYouToolDef = mcp.NewTool("feed_for_you",
	mcp.WithDescription("Personalized feed ranked by engagement, recency, quality, and companion signals. "+
		"Each post carries a score, reasons, and the companion it was surfaced through."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Member whose feed to build")),
	mcp.WithNumber("limit", mcp.Description("Maximum posts (default 50, max 200)")),
	mcp.WithBoolean("include_second_degree", mcp.Description("Boost companions-of-companions (default true)")),
	mcp.WithNumber("decay_window_hours", mcp.Description("Only posts newer than this many hours (default 168)")),
	mcp.WithBoolean("render_html", mcp.Description("Add content_html rendered from markdown")),
)

var trendingToolDef = mcp.NewTool("feed_trending",
	mcp.WithDescription("Posts from the last 48 hours with at least 5 beneficial marks, ranked by engagement. "+
		"Posts by the member's companions get a 1.5x boost."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("Member viewing the trending list")),
	mcp.WithNumber("limit", mcp.Description("Maximum posts (default 50, max 200)")),
	mcp.WithBoolean("render_html", mcp.Description("Add content_html rendered from markdown")),
)

var requestToolDef = mcp.NewTool("connection_request",
	mcp.WithDescription("Send a companion request. Fails with CONFLICT when the pair already has a pending, accepted, or blocked connection."),
	mcp.WithString("requester_id", mcp.Required(), mcp.Description("Member sending the request")),
	mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Member receiving the request")),
	mcp.WithString("message", mcp.Description("Optional note, at most 500 characters")),
)

var respondToolDef = mcp.NewTool("connection_respond",
	mcp.WithDescription("Accept, decline, or block a connection. Only the recipient may accept or decline a pending request; "+
		"either party may block a pending or accepted connection."),
	mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection to act on")),
	mcp.WithString("actor_id", mcp.Required(), mcp.Description("Member performing the action")),
	mcp.WithString("action", mcp.Required(), mcp.Enum("accept", "decline", "block"), mcp.Description("Action to take")),
)

var interactToolDef = mcp.NewTool("connection_interact",
	mcp.WithDescription("Record an interaction on an accepted connection and raise its strength: "+
		"beneficial_given +2, comment_reply +3, halaqa_shared +5, knowledge_shared +4, message_sent +1. Strength is capped at 100."),
	mcp.WithString("connection_id", mcp.Required(), mcp.Description("Accepted connection")),
	mcp.WithString("type", mcp.Required(),
		mcp.Enum("beneficial_given", "comment_reply", "halaqa_shared", "knowledge_shared", "message_sent"),
		mcp.Description("Interaction type")),
)

var historyToolDef = mcp.NewTool("connection_history",
	mcp.WithDescription("List a connection's interaction log, oldest first, with its current strength."),
	mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection in any status")),
	mcp.WithNumber("limit", mcp.Description("Maximum records (0 returns the whole log, max 200)")),
)

var strengthToolDef = mcp.NewTool("connection_strength",
	mcp.WithDescription("Apply a signed delta to an accepted connection's strength. The result is clamped to 0-100."),
	mcp.WithString("connection_id", mcp.Required(), mcp.Description("Accepted connection")),
	mcp.WithNumber("delta", mcp.Required(), mcp.Description("Amount to add; negative values weaken the connection")),
)

var importToolDef = mcp.NewTool("fixture_import",
	mcp.WithDescription("Import profiles, circles, connections, posts, marks, and comments from a YAML or JSON fixture. "+
		"The file must sit directly in ~/.suhba/imports or a configured allowed path."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Fixture file (.yaml, .yml, or .json)")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Collision handling (default error)")),
)
