package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
)

// User screens are admin only; the API enforces it too.
func forbidUnlessAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !session.FromContext(r.Context()).IsAdmin() {
		renderError(w, r, http.StatusForbidden, "Only administrators can manage users.")
		return true
	}
	return false
}

func usersList(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessAdmin(w, r) {
		return
	}
	list, err := gatewayOf(r).ListUsers(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "users.html", map[string]interface{}{
		"Title": "Users",
		"List":  newListView(list.Items, models.UserFilter, r.URL.Query()),
	})
}

func userFormData(action, submit string, in handlers.UserInput, editing bool) map[string]interface{} {
	active := in.IsActive == nil || *in.IsActive
	return map[string]interface{}{
		"Title":       submit,
		"FormAction":  action,
		"SubmitLabel": submit,
		"Fields":      map[string]string(nil),
		"Input":       in,
		"Active":      active,
		"Editing":     editing,
		"Roles":       models.Roles,
	}
}

func parseUserForm(r *http.Request) handlers.UserInput {
	active := r.FormValue("is_active") == "on"
	return handlers.UserInput{
		Username:   strings.TrimSpace(r.FormValue("username")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		FullName:   strings.TrimSpace(r.FormValue("full_name")),
		Department: strings.TrimSpace(r.FormValue("department")),
		Region:     strings.TrimSpace(r.FormValue("region")),
		Role:       r.FormValue("role"),
		IsActive:   &active,
		Password:   r.FormValue("password"),
	}
}

func renderUserForm(w http.ResponseWriter, r *http.Request, action, submit string, in handlers.UserInput, editing bool, err error) {
	in.Password = ""
	data := userFormData(action, submit, in, editing)
	data["Error"], data["Fields"] = apiMessage(err), apiFields(err)
	renderTemplate(w, r, http.StatusBadRequest, "user_form.html", data)
}

func userCreateForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessAdmin(w, r) {
		return
	}
	in := handlers.UserInput{Role: models.RoleViewer}
	renderTemplate(w, r, http.StatusOK, "user_form.html", userFormData("/users", "Create user", in, false))
}

func userCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseUserForm(r)
	if _, err := gatewayOf(r).CreateUser(r.Context(), in); err != nil {
		if isFormError(err) {
			renderUserForm(w, r, "/users", "Create user", in, false, err)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/users", "User "+in.Username+" created")
}

func userEditForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessAdmin(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := gatewayOf(r).GetUser(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	active := u.IsActive
	in := handlers.UserInput{
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Department: u.Department,
		Region:     u.Region,
		Role:       u.Role,
		IsActive:   &active,
	}
	renderTemplate(w, r, http.StatusOK, "user_form.html", userFormData("/users/"+strconv.Itoa(id)+"/edit", "Save user", in, true))
}

func userUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseUserForm(r)
	if _, err := gatewayOf(r).UpdateUser(r.Context(), id, in); err != nil {
		if isFormError(err) {
			renderUserForm(w, r, "/users/"+strconv.Itoa(id)+"/edit", "Save user", in, true, err)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/users", "User "+in.Username+" saved")
}

func userDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessAdmin(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := gatewayOf(r).GetUser(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Title":      "Delete user",
		"Kind":       "user",
		"Name":       u.Username,
		"FormAction": "/users/" + strconv.Itoa(id) + "/delete",
		"CancelURL":  "/users",
	})
}

func userDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := gatewayOf(r).DeleteUser(r.Context(), id); err != nil {
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/users", "User deleted")
}
