/*
Package fold splits streamed HTML pages into an above-the-fold part that is
sent at once and below-the-fold regions that are deferred.

A critical-line configuration names the regions to defer with XPath-like
selectors:

	div[@id = "container"]/div[4],img[3]:h1[@id = "footer"]

Each comma-separated entry is a start selector with an optional end
selector after ':'. Matching elements are pulled out of the main stream,
replaced by empty marker comments, and delivered as a JSON payload keyed by
region id ("panel-id.0", "panel-id.1", ...).

# Serving modes

  - Inline: the main stream followed by the payload in the same response.
  - Split ATF: the main stream plus a pointer to a follow-up request.
  - Split BTF: the follow-up response, carrying only the payload.

# Usage

	eng, err := fold.New(fold.WithDefaultConfigText(`div[@id = "comments"]`))
	if err != nil {
		log.Fatal(err)
	}
	summary, err := eng.Process(ctx, page, w, domain.Request{URL: "/post.html"})

Configurations can also come per request (the X-PSA-Split-Config header in
the HTTP adapter) or from a ConfigStore keyed by URL path; see WithStore.

Producers that already tokenize HTML can skip Process and feed events to
the handler returned by NewDocument.
*/
package fold
