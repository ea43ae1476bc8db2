package platform

import "regexp"

// Signature matches a platform against page HTML or script URLs.
type Signature struct {
	Name    string
	HTML    []*regexp.Regexp
	Scripts []*regexp.Regexp
}

// Group is an ordered set of signatures checked as one priority tier.
type Group struct {
	Name       string
	Signatures []Signature
}

// Fallback is reported when nothing matches.
const Fallback = "Custom / Static HTML"

func re(pattern string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + pattern) }

// DefaultGroups are checked in order: storefronts, then site builders and
// CMSs, then JS frameworks. Inside a group the first matching signature
// wins, so more specific platforms come first (WooCommerce before
// WordPress, Next.js before React).
func DefaultGroups() []Group {
	return []Group{
		{
			Name: "ecommerce",
			Signatures: []Signature{
				{
					Name:    "Shopify",
					HTML:    []*regexp.Regexp{re(`cdn\.shopify\.com`), re(`Shopify\.theme`), re(`shopify-section`)},
					Scripts: []*regexp.Regexp{re(`cdn\.shopify\.com`), re(`shopifycdn`)},
				},
				{
					Name:    "WooCommerce",
					HTML:    []*regexp.Regexp{re(`woocommerce`), re(`wc-block`)},
					Scripts: []*regexp.Regexp{re(`/plugins/woocommerce/`)},
				},
				{
					Name:    "Magento",
					HTML:    []*regexp.Regexp{re(`Mage\.Cookies`), re(`data-mage-init`), re(`/static/version\d+/frontend/`)},
					Scripts: []*regexp.Regexp{re(`/static/version\d+/`), re(`/mage/(cookies|requirejs)`)},
				},
				{
					Name:    "BigCommerce",
					HTML:    []*regexp.Regexp{re(`bigcommerce\.com`), re(`data-stencil`)},
					Scripts: []*regexp.Regexp{re(`bigcommerce\.com`), re(`stencil-utils`)},
				},
				{
					Name: "PrestaShop",
					HTML: []*regexp.Regexp{re(`prestashop`)},
				},
			},
		},
		{
			Name: "cms",
			Signatures: []Signature{
				{
					Name:    "Wix",
					HTML:    []*regexp.Regexp{re(`static\.wixstatic\.com`), re(`wix-warmup-data`), re(`X-Wix-`)},
					Scripts: []*regexp.Regexp{re(`static\.parastorage\.com`), re(`wixstatic\.com`)},
				},
				{
					Name:    "Squarespace",
					HTML:    []*regexp.Regexp{re(`squarespace\.com`), re(`static1\.squarespace`), re(`Static\.SQUARESPACE_CONTEXT`)},
					Scripts: []*regexp.Regexp{re(`squarespace\.com`)},
				},
				{
					Name:    "Webflow",
					HTML:    []*regexp.Regexp{re(`data-wf-page`), re(`data-wf-site`)},
					Scripts: []*regexp.Regexp{re(`webflow\.js`), re(`website-files\.com`)},
				},
				{
					Name:    "WordPress",
					HTML:    []*regexp.Regexp{re(`/wp-content/`), re(`/wp-includes/`), re(`<meta[^>]+generator[^>]+WordPress`)},
					Scripts: []*regexp.Regexp{re(`/wp-content/`), re(`/wp-includes/`)},
				},
				{
					Name:    "Drupal",
					HTML:    []*regexp.Regexp{re(`drupal-settings-json`), re(`<meta[^>]+generator[^>]+Drupal`), re(`/sites/default/files/`)},
					Scripts: []*regexp.Regexp{re(`/core/misc/drupal\.js`), re(`drupal\.js`)},
				},
				{
					Name:    "Joomla",
					HTML:    []*regexp.Regexp{re(`<meta[^>]+generator[^>]+Joomla`), re(`/media/jui/`)},
					Scripts: []*regexp.Regexp{re(`/media/system/js/`)},
				},
				{
					Name: "Ghost",
					HTML: []*regexp.Regexp{re(`<meta[^>]+generator[^>]+Ghost`), re(`ghost-portal`)},
				},
				{
					Name:    "HubSpot CMS",
					HTML:    []*regexp.Regexp{re(`<meta[^>]+generator[^>]+HubSpot`), re(`hs-sites\.com`), re(`hs_cos_wrapper`)},
					Scripts: []*regexp.Regexp{re(`/hs/hsstatic/`), re(`hs-sites\.com`)},
				},
			},
		},
		{
			Name: "framework",
			Signatures: []Signature{
				{
					Name:    "Next.js",
					HTML:    []*regexp.Regexp{re(`__NEXT_DATA__`), re(`/_next/static/`)},
					Scripts: []*regexp.Regexp{re(`/_next/`)},
				},
				{
					Name:    "Nuxt",
					HTML:    []*regexp.Regexp{re(`__NUXT__`), re(`id="__nuxt"`), re(`/_nuxt/`)},
					Scripts: []*regexp.Regexp{re(`/_nuxt/`)},
				},
				{
					Name:    "Gatsby",
					HTML:    []*regexp.Regexp{re(`id="___gatsby"`), re(`<meta[^>]+generator[^>]+Gatsby`)},
					Scripts: []*regexp.Regexp{re(`gatsby`)},
				},
				{
					Name: "Angular",
					HTML: []*regexp.Regexp{re(`ng-version=`), re(`<app-root`), re(`ng-app`)},
				},
				{
					Name:    "React",
					HTML:    []*regexp.Regexp{re(`data-reactroot`), re(`id="root"`), re(`__REACT_DEVTOOLS`)},
					Scripts: []*regexp.Regexp{re(`react(\.production)?(\.min)?\.js`), re(`react-dom`)},
				},
				{
					Name:    "Vue.js",
					HTML:    []*regexp.Regexp{re(`data-v-[0-9a-f]{6,}`), re(`id="app"[^>]*data-v-app`), re(`__VUE__`)},
					Scripts: []*regexp.Regexp{re(`vue(\.runtime)?(\.global)?(\.prod)?(\.min)?\.js`)},
				},
				{
					Name:    "Svelte",
					HTML:    []*regexp.Regexp{re(`class="[^"]*svelte-[a-z0-9]+`)},
					Scripts: []*regexp.Regexp{re(`svelte`)},
				},
			},
		},
	}
}
