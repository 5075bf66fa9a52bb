package posts

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/scribahq/scriba/cache"
	"github.com/scribahq/scriba/cmd/models"
	"github.com/scribahq/scriba/cmd/utils"
	"github.com/scribahq/scriba/forms"
	"github.com/scribahq/scriba/templates"
)

type Handler struct {
	db     *gorm.DB
	render *templates.Renderer
	pages  *cache.PageCache
}

func NewHandler(db *gorm.DB, render *templates.Renderer, pages *cache.PageCache) *Handler {
	return &Handler{db: db, render: render, pages: pages}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", utils.OptionalAuth(h.Index)).Methods("GET")
	router.HandleFunc("/group/{slug}/", utils.OptionalAuth(h.GroupPosts)).Methods("GET")
	router.HandleFunc("/profile/{username}/", utils.OptionalAuth(h.Profile)).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/", utils.OptionalAuth(h.PostDetail)).Methods("GET")
	router.HandleFunc("/create/", utils.RequireAuth(h.CreatePost)).Methods("GET", "POST")
	router.HandleFunc("/posts/{id:[0-9]+}/edit/", utils.RequireAuth(h.EditPost)).Methods("GET", "POST")
	router.HandleFunc("/posts/{id:[0-9]+}/comment/", utils.RequireAuth(h.AddComment)).Methods("POST")
	router.HandleFunc("/follow/", utils.RequireAuth(h.FollowIndex)).Methods("GET")
	router.HandleFunc("/profile/{username}/follow/", utils.RequireAuth(h.ProfileFollow)).Methods("GET")
	router.HandleFunc("/profile/{username}/unfollow/", utils.RequireAuth(h.ProfileUnfollow)).Methods("GET")
}

// feedPage is the template context shared by the paginated listings.
type feedPage struct {
	Posts []models.Post
	Page  utils.Pagination

	Group            *models.Group
	Author           *models.User
	Following        bool
	ShowFollowButton bool
}

// paginate runs the count plus the windowed select for one listing query.
// The query must already carry its filters; ordering and preloads are
// applied here so every feed pages the same way.
func (h *Handler) paginate(query *gorm.DB, rawPage string) ([]models.Post, utils.Pagination, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, err
	}

	pg := utils.NewPagination(total, utils.PageSize, rawPage)

	var posts []models.Post
	err := query.
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Offset(pg.Offset()).
		Limit(pg.PageSize).
		Find(&posts).Error
	return posts, pg, err
}

// Index renders the home feed. The rendered body is cached for the cache's
// TTL keyed by the request URI, so each page of the listing caches
// independently; a post created or deleted inside the window is not
// visible until the entry expires.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	if body, ok := h.pages.Get(key); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
		return
	}

	query := h.db.Model(&models.Post{})
	posts, pg, err := h.paginate(query, r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	body, err := h.render.Bytes("index.html", feedPage{Posts: posts, Page: pg})
	if err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	h.pages.Set(key, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

// GroupPosts renders the feed of a single group.
func (h *Handler) GroupPosts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var group models.Group
	if err := h.db.Where("slug = ?", vars["slug"]).First(&group).Error; err != nil {
		h.render.NotFound(w)
		return
	}

	query := h.db.Model(&models.Post{}).Where("group_id = ?", group.ID)
	posts, pg, err := h.paginate(query, r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "group_list.html", feedPage{
		Posts: posts,
		Page:  pg,
		Group: &group,
	})
}

// Profile renders an author's feed. For an authenticated caller the page
// carries whether they already follow this author.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var author models.User
	if err := h.db.Where("username = ?", vars["username"]).First(&author).Error; err != nil {
		h.render.NotFound(w)
		return
	}

	query := h.db.Model(&models.Post{}).Where("author_id = ?", author.ID)
	posts, pg, err := h.paginate(query, r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	page := feedPage{Posts: posts, Page: pg, Author: &author}
	if callerID, err := utils.GetUserIDFromContext(r.Context()); err == nil {
		page.ShowFollowButton = callerID != author.ID
		var count int64
		h.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", callerID, author.ID).
			Count(&count)
		page.Following = count > 0
	}

	h.render.Render(w, http.StatusOK, "profile.html", page)
}

type detailPage struct {
	Post     models.Post
	Comments []models.Comment
	Form     *forms.CommentForm
	IsAuthor bool
}

// PostDetail renders one post with its full comment list and an empty
// comment form.
func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	var comments []models.Comment
	if err := h.db.Where("post_id = ?", post.ID).
		Preload("Author").
		Order("created DESC").
		Find(&comments).Error; err != nil {
		http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
		return
	}

	page := detailPage{
		Post:     post,
		Comments: comments,
		Form:     &forms.CommentForm{Errors: forms.Errors{}},
	}
	if callerID, err := utils.GetUserIDFromContext(r.Context()); err == nil {
		page.IsAuthor = callerID == post.AuthorID
	}

	h.render.Render(w, http.StatusOK, "post_detail.html", page)
}

type formPage struct {
	Form   *forms.PostForm
	Groups []models.Group
	IsEdit bool
}

func (h *Handler) renderPostForm(w http.ResponseWriter, form *forms.PostForm, isEdit bool) {
	var groups []models.Group
	h.db.Order("title").Find(&groups)
	h.render.Render(w, http.StatusOK, "post_form.html", formPage{
		Form:   form,
		Groups: groups,
		IsEdit: isEdit,
	})
}

// CreatePost shows the new-post form and, on a valid submission, persists
// the post for the caller and redirects to their profile. An invalid
// submission re-renders the form with the input preserved.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodGet {
		h.renderPostForm(w, &forms.PostForm{Errors: forms.Errors{}}, false)
		return
	}

	form := forms.ParsePostForm(r)
	if !form.Valid() || !h.resolveGroup(form) {
		h.renderPostForm(w, form, false)
		return
	}

	imagePath, ok := h.saveUpload(w, r, form, false)
	if !ok {
		return
	}

	post := models.Post{
		Text:     form.Text,
		AuthorID: userID,
		GroupID:  form.GroupID,
		Image:    imagePath,
	}
	if err := h.db.Create(&post).Error; err != nil {
		http.Error(w, "Error creating post", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// EditPost lets the author change text, group, and image. A non-author is
// redirected to the detail page without modification; the id and author
// never change.
func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	detailURL := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/"
	if post.AuthorID != userID {
		http.Redirect(w, r, detailURL, http.StatusFound)
		return
	}

	if r.Method == http.MethodGet {
		form := &forms.PostForm{Text: post.Text, Errors: forms.Errors{}}
		if post.GroupID != nil {
			form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
			form.GroupID = post.GroupID
		}
		h.renderPostForm(w, form, true)
		return
	}

	form := forms.ParsePostForm(r)
	if !form.Valid() || !h.resolveGroup(form) {
		h.renderPostForm(w, form, true)
		return
	}

	imagePath, ok := h.saveUpload(w, r, form, true)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"text":     form.Text,
		"group_id": form.GroupID,
	}
	if imagePath != "" {
		if post.Image != "" {
			utils.DeleteImage(post.Image)
		}
		updates["image"] = imagePath
	}

	if err := h.db.Model(&post).Updates(updates).Error; err != nil {
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, detailURL, http.StatusFound)
}

// AddComment persists a valid comment against the post and redirects back
// to the detail page. An invalid submission is dropped without an error,
// the redirect happens either way.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	form := forms.ParseCommentForm(r)
	if form.Valid() {
		comment := models.Comment{
			PostID:   post.ID,
			AuthorID: userID,
			Text:     form.Text,
		}
		if err := h.db.Create(&comment).Error; err != nil {
			http.Error(w, "Error creating comment", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/", http.StatusFound)
}

// FollowIndex renders the aggregated feed: every post whose author the
// caller follows, newest first.
func (h *Handler) FollowIndex(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	followed := h.db.Model(&models.Follow{}).
		Select("author_id").
		Where("user_id = ?", userID)
	query := h.db.Model(&models.Post{}).Where("author_id IN (?)", followed)

	posts, pg, err := h.paginate(query, r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "follow.html", feedPage{Posts: posts, Page: pg})
}

// ProfileFollow creates the follow edge idempotently: repeating the
// request never duplicates it, and following yourself is a no-op. The
// schema's unique index and self-follow check back this up for writers
// that bypass the handler.
func (h *Handler) ProfileFollow(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	var author models.User
	if err := h.db.Where("username = ?", vars["username"]).First(&author).Error; err != nil {
		h.render.NotFound(w)
		return
	}

	if author.ID != userID {
		var existing models.Follow
		err := h.db.Where("user_id = ? AND author_id = ?", userID, author.ID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			follow := models.Follow{UserID: userID, AuthorID: author.ID}
			if err := h.db.Create(&follow).Error; err != nil && !isConstraintViolation(err) {
				http.Error(w, "Error following author", http.StatusInternalServerError)
				return
			}
		}
	}

	http.Redirect(w, r, "/follow/", http.StatusFound)
}

// ProfileUnfollow deletes the follow edge if present; deleting a missing
// edge is not an error.
func (h *Handler) ProfileUnfollow(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	var author models.User
	if err := h.db.Where("username = ?", vars["username"]).First(&author).Error; err != nil {
		h.render.NotFound(w)
		return
	}

	if err := h.db.Where("user_id = ? AND author_id = ?", userID, author.ID).
		Delete(&models.Follow{}).Error; err != nil {
		http.Error(w, "Error unfollowing author", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/follow/", http.StatusFound)
}

// lookupPost loads the post in the id path variable, rendering the 404
// page when it does not exist.
func (h *Handler) lookupPost(w http.ResponseWriter, r *http.Request) (models.Post, bool) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		h.render.NotFound(w)
		return models.Post{}, false
	}

	var post models.Post
	if err := h.db.Preload("Author").Preload("Group").First(&post, postID).Error; err != nil {
		h.render.NotFound(w)
		return models.Post{}, false
	}
	return post, true
}

// resolveGroup checks that a submitted group reference exists. Returns
// false after recording a field error so the form re-renders.
func (h *Handler) resolveGroup(form *forms.PostForm) bool {
	if form.GroupID == nil {
		return true
	}
	var group models.Group
	if err := h.db.First(&group, *form.GroupID).Error; err != nil {
		form.MarkGroupInvalid()
		return false
	}
	return true
}

// saveUpload stores the optional image attachment. A rejected upload
// re-renders the form; a missing file is fine and returns an empty path.
func (h *Handler) saveUpload(w http.ResponseWriter, r *http.Request, form *forms.PostForm, isEdit bool) (string, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		// No file attached, or not a multipart submission at all.
		return "", true
	}
	defer file.Close()

	imagePath, err := utils.SaveImage(file, header)
	if err != nil {
		form.MarkImageInvalid(err.Error())
		h.renderPostForm(w, form, isEdit)
		return "", false
	}
	return imagePath, true
}

// isConstraintViolation reports whether err is the storage constraint
// rejecting a duplicate or self-referencing follow edge.
func isConstraintViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "CHECK constraint") ||
		strings.Contains(msg, "check constraint")
}
