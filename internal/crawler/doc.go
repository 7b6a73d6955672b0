// Package crawler holds the catalog crawl loop and the types shared by its
// collaborators. A Controller fetches one page at a time, hands the body to an
// Extractor for records and to a Resolver for the next link, and stops when a
// page has no next link, the page limit is reached, a next link points back to
// a visited page, or a fetch fails.
package crawler
