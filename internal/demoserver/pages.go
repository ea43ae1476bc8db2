package demoserver

// PageVersion is one revision of a page. Defects lists the axe rule ids
// the revision is built to trigger.
type PageVersion struct {
	HTML    string
	Defects []string
}

// PageDefinition holds all versions of a single page. Platform is the
// label the fingerprinter should report for it.
type PageDefinition struct {
	Path        string
	Description string
	Platform    string
	Versions    map[int]PageVersion
}

// GetAllPages returns all demo page definitions. Version 1 of every page
// is the most broken; the last version is clean.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getStaticPage(),
		getShopPage(),
		getBlogPage(),
		getAppPage(),
	}
}

// ===== STATIC PAGE =====
func getStaticPage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Hand-written HTML with missing alt text and low contrast",
		Platform:    "Custom / Static HTML",
		Versions: map[int]PageVersion{
			1: {
				Defects: []string{"html-has-lang", "image-alt", "color-contrast", "link-name"},
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Site - Home</title>
    <style>.muted { color: #bbb; background: #fff; }</style>
</head>
<body>
    <h1>Welcome</h1>
    <img src="/static/hero.png">
    <p class="muted">Our opening hours are listed below.</p>
    <a href="/shop"><img src="/static/cart.png"></a>
    <a href="/blog">Blog</a>
</body>
</html>`,
			},
			2: {
				Defects: []string{"color-contrast"},
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Site - Home</title>
    <style>.muted { color: #bbb; background: #fff; }</style>
</head>
<body>
    <main>
        <h1>Welcome</h1>
        <img src="/static/hero.png" alt="Storefront at dusk">
        <p class="muted">Our opening hours are listed below.</p>
        <a href="/shop"><img src="/static/cart.png" alt="Shop"></a>
        <a href="/blog">Blog</a>
    </main>
</body>
</html>`,
			},
			3: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Site - Home</title>
    <style>.muted { color: #555; background: #fff; }</style>
</head>
<body>
    <main>
        <h1>Welcome</h1>
        <img src="/static/hero.png" alt="Storefront at dusk">
        <p class="muted">Our opening hours are listed below.</p>
        <a href="/shop"><img src="/static/cart.png" alt="Shop"></a>
        <a href="/blog">Blog</a>
    </main>
</body>
</html>`,
			},
		},
	}
}

// ===== SHOP PAGE =====
func getShopPage() PageDefinition {
	return PageDefinition{
		Path:        "/shop",
		Description: "Storefront theme with unlabeled inputs and an unnamed button",
		Platform:    "Shopify",
		Versions: map[int]PageVersion{
			1: {
				Defects: []string{"label", "button-name", "image-alt"},
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Shop</title>
    <script src="https://cdn.shopify.com/s/files/1/demo/theme.js"></script>
</head>
<body>
    <div class="shopify-section" id="shopify-section-header">
        <h1>Demo Shop</h1>
    </div>
    <main>
        <img src="/static/product.jpg">
        <form action="/cart/add" method="post">
            <input type="number" name="quantity" value="1">
            <input type="email" name="email" placeholder="Email for restock alerts">
            <button type="submit"><svg width="16" height="16"></svg></button>
        </form>
    </main>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Shop</title>
    <script src="https://cdn.shopify.com/s/files/1/demo/theme.js"></script>
</head>
<body>
    <div class="shopify-section" id="shopify-section-header">
        <h1>Demo Shop</h1>
    </div>
    <main>
        <img src="/static/product.jpg" alt="Blue ceramic mug">
        <form action="/cart/add" method="post">
            <label for="qty">Quantity</label>
            <input id="qty" type="number" name="quantity" value="1">
            <label for="email">Email for restock alerts</label>
            <input id="email" type="email" name="email">
            <button type="submit" aria-label="Add to cart"><svg width="16" height="16" aria-hidden="true"></svg></button>
        </form>
    </main>
</body>
</html>`,
			},
		},
	}
}

// ===== BLOG PAGE =====
func getBlogPage() PageDefinition {
	return PageDefinition{
		Path:        "/blog",
		Description: "CMS blog with skipped heading levels and an empty link",
		Platform:    "WordPress",
		Versions: map[int]PageVersion{
			1: {
				Defects: []string{"heading-order", "link-name", "document-title"},
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta name="generator" content="WordPress 6.5">
    <link rel="stylesheet" href="/wp-content/themes/demo/style.css">
</head>
<body>
    <main>
        <h1>Blog</h1>
        <h4>Latest posts</h4>
        <article>
            <h5>Hello world</h5>
            <p>First post. <a href="/blog/hello-world"></a></p>
        </article>
    </main>
    <script src="/wp-includes/js/wp-embed.min.js"></script>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo Blog</title>
    <meta name="generator" content="WordPress 6.5">
    <link rel="stylesheet" href="/wp-content/themes/demo/style.css">
</head>
<body>
    <main>
        <h1>Blog</h1>
        <h2>Latest posts</h2>
        <article>
            <h3>Hello world</h3>
            <p>First post. <a href="/blog/hello-world">Read more</a></p>
        </article>
    </main>
    <script src="/wp-includes/js/wp-embed.min.js"></script>
</body>
</html>`,
			},
		},
	}
}

// ===== APP PAGE =====
func getAppPage() PageDefinition {
	return PageDefinition{
		Path:        "/app",
		Description: "Client-rendered app shell; violations appear after hydration",
		Platform:    "Next.js",
		Versions: map[int]PageVersion{
			1: {
				Defects: []string{"button-name", "aria-allowed-attr"},
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo App</title>
    <script src="/_next/static/chunks/main.js" defer></script>
</head>
<body>
    <div id="__next"></div>
    <script id="__NEXT_DATA__" type="application/json">{"page":"/app"}</script>
    <script>
        document.getElementById('__next').innerHTML =
            '<main><h1>Dashboard</h1><button class="icon"></button>' +
            '<span role="presentation" aria-checked="true">Done</span></main>';
    </script>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Demo App</title>
    <script src="/_next/static/chunks/main.js" defer></script>
</head>
<body>
    <div id="__next"></div>
    <script id="__NEXT_DATA__" type="application/json">{"page":"/app"}</script>
    <script>
        document.getElementById('__next').innerHTML =
            '<main><h1>Dashboard</h1><button class="icon">Refresh</button>' +
            '<span>Done</span></main>';
    </script>
</body>
</html>`,
			},
		},
	}
}
